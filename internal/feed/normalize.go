package feed

import (
	"encoding/json"
	"math"
	"strconv"

	"buswatch/internal/watch"
)

// Known field aliases across the feed shapes we have seen in the wild.
// The upstream provider has changed payload layout several times; the
// normalizer keeps the engine insulated from that.
var (
	idKeys      = []string{"id", "code", "vehicleId", "bus", "codVehicle", "idVeiculo", "busServiceId", "cod"}
	routeKeys   = []string{"busServiceNumber", "numero", "line", "route", "name", "nome"}
	latKeys     = []string{"lat", "latitude", "gps_latitude", "LATITUDE"}
	lonKeys     = []string{"lon", "lng", "longitude", "gps_longitude", "LONGITUDE"}
	stampKeys   = []string{"timestamp", "gps_datetime", "updated_at", "datetime", "DATAHORA"}
	lineArrKeys = []string{"lines", "forecast", "previsoes"}
)

// Normalize converts a raw feed body into a uniform vehicle list.
//
// Supported shapes:
//   - array of objects with a nested latLng{lat,lng} coordinate
//   - flat array with lat/lon already at the top level
//   - {"data": [...]} with assorted coordinate aliases
//   - {"lines"|"forecast"|"previsoes": [...]} with per-line vehicle arrays
//
// Observations whose coordinates do not parse to finite numbers are
// dropped. Anything unrecognized (including a non-JSON body) yields an
// empty snapshot, never an error.
func Normalize(raw []byte) []watch.Vehicle {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return []watch.Vehicle{}
	}

	switch v := doc.(type) {
	case []any:
		if len(v) == 0 {
			return []watch.Vehicle{}
		}
		if first, ok := v[0].(map[string]any); ok {
			if _, has := first["latLng"]; has {
				return fromLatLngArray(v)
			}
			if _, has := first["lat"]; has {
				return fromFlatArray(v)
			}
		}
	case map[string]any:
		if data, ok := v["data"].([]any); ok {
			return fromFlatArray(data)
		}
		for _, k := range lineArrKeys {
			if raw, ok := v[k]; ok {
				return fromLineGroups(raw)
			}
		}
	}
	return []watch.Vehicle{}
}

func fromLatLngArray(items []any) []watch.Vehicle {
	out := make([]watch.Vehicle, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		ll, ok := m["latLng"].(map[string]any)
		if !ok {
			continue
		}
		lat, okLat := finiteNumber(ll["lat"])
		lon, okLon := finiteNumber(ll["lng"])
		if !okLat || !okLon {
			continue
		}
		out = append(out, watch.Vehicle{
			ID:         pickID(m),
			Route:      pickString(m, routeKeys),
			Lat:        lat,
			Lon:        lon,
			ObservedAt: pickString(m, stampKeys),
		})
	}
	return out
}

func fromFlatArray(items []any) []watch.Vehicle {
	out := make([]watch.Vehicle, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		lat, okLat := firstFinite(m, latKeys)
		lon, okLon := firstFinite(m, lonKeys)
		if !okLat || !okLon {
			continue
		}
		out = append(out, watch.Vehicle{
			ID:         pickID(m),
			Route:      pickString(m, routeKeys),
			Lat:        lat,
			Lon:        lon,
			ObservedAt: pickString(m, stampKeys),
		})
	}
	return out
}

// fromLineGroups flattens the per-line grouped shape. Both the line list
// and each line's vehicle list may be a single object instead of an array.
func fromLineGroups(raw any) []watch.Vehicle {
	var out []watch.Vehicle
	for _, lineRaw := range asSlice(raw) {
		line, ok := lineRaw.(map[string]any)
		if !ok {
			continue
		}
		route := pickString(line, routeKeys)

		var vehicles any
		for _, k := range []string{"vehicles", "veiculos", "buses"} {
			if v, has := line[k]; has {
				vehicles = v
				break
			}
		}
		for _, it := range asSlice(vehicles) {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			lat, okLat := firstFinite(m, latKeys)
			lon, okLon := firstFinite(m, lonKeys)
			if !okLat || !okLon {
				continue
			}
			out = append(out, watch.Vehicle{
				ID:         pickID(m),
				Route:      route,
				Lat:        lat,
				Lon:        lon,
				ObservedAt: pickString(m, stampKeys),
			})
		}
	}
	if out == nil {
		out = []watch.Vehicle{}
	}
	return out
}

func asSlice(v any) []any {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	default:
		return []any{x}
	}
}

// pickID returns the first present identity alias, or the "?" sentinel the
// upstream uses for unidentified vehicles.
func pickID(m map[string]any) string {
	for _, k := range idKeys {
		if v, ok := m[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return "?"
}

func pickString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstFinite(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if f, fin := finiteNumber(v); fin {
				return f, true
			}
		}
	}
	return 0, false
}

func finiteNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		// JSON numbers decode as float64; ids are integral in practice.
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
