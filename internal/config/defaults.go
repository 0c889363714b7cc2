package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Defaults mirror the deployment this watcher was originally built for
// (Cartagena line A108 approaching the Campestre stop). Every field can be
// overridden; a config file with nothing but a telegram token is usable.
const (
	DefaultEndpoint = "https://zn5.m2mcontrol.com.br/api/forecast/lines/load/forecast/lines/fromPoint/242089/1343"
	DefaultRoute    = "^A108$"
	DefaultLine     = "A108"
	DefaultLandmark = "Campestre"
	DefaultSchedule = "@every 90s"

	DefaultRefLat       = 10.3763016
	DefaultRefLon       = -75.4999534
	DefaultRadiusMeters = 1000

	DefaultFeedTimeout    = "10s"
	DefaultDepartCooldown = "2m"
	DefaultNearCooldown   = "10m"

	DefaultStatePath = "./buswatch_state.json"
)

// ApplyDefaults fills zero-valued fields in place.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Feed.Endpoint) == "" {
		c.Feed.Endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(c.Feed.Timeout) == "" {
		c.Feed.Timeout = DefaultFeedTimeout
	}
	if strings.TrimSpace(c.Watch.Route) == "" {
		c.Watch.Route = DefaultRoute
	}
	if strings.TrimSpace(c.Watch.Line) == "" {
		c.Watch.Line = DefaultLine
	}
	if strings.TrimSpace(c.Watch.Landmark) == "" {
		c.Watch.Landmark = DefaultLandmark
	}
	if c.Watch.RefLat == 0 && c.Watch.RefLon == 0 {
		c.Watch.RefLat = DefaultRefLat
		c.Watch.RefLon = DefaultRefLon
	}
	if c.Watch.RadiusMeters <= 0 {
		c.Watch.RadiusMeters = DefaultRadiusMeters
	}
	if strings.TrimSpace(c.Watch.DepartCooldown) == "" {
		c.Watch.DepartCooldown = DefaultDepartCooldown
	}
	if strings.TrimSpace(c.Watch.NearCooldown) == "" {
		c.Watch.NearCooldown = DefaultNearCooldown
	}
	if strings.TrimSpace(c.Schedule) == "" {
		c.Schedule = DefaultSchedule
	}
	if strings.TrimSpace(c.State.Path) == "" {
		c.State.Path = DefaultStatePath
	}
}

// Validate rejects configs that would fail later at runtime. It is also
// the hot-reload gate: a bad edit is refused and the running config kept.
func (c *Config) Validate() error {
	if _, err := regexp.Compile(c.Watch.Route); err != nil {
		return fmt.Errorf("watch.route: invalid pattern: %w", err)
	}
	if c.Watch.RefLat < -90 || c.Watch.RefLat > 90 {
		return fmt.Errorf("watch.ref_lat: out of range")
	}
	if c.Watch.RefLon < -180 || c.Watch.RefLon > 180 {
		return fmt.Errorf("watch.ref_lon: out of range")
	}
	if c.Watch.RadiusMeters <= 0 {
		return fmt.Errorf("watch.radius_m: must be > 0")
	}
	for _, f := range []struct{ path, raw string }{
		{"feed.timeout", c.Feed.Timeout},
		{"watch.depart_cooldown", c.Watch.DepartCooldown},
		{"watch.near_cooldown", c.Watch.NearCooldown},
		{"telegram.send_timeout", c.Telegram.SendTimeout},
		{"state.busy_timeout", c.State.BusyTimeout},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Feed.Endpoint) == "" {
		return fmt.Errorf("feed.endpoint: required")
	}
	return nil
}
