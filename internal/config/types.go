package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Feed is the upstream vehicle-location endpoint being polled.
	Feed FeedConfig `json:"feed"`

	// Watch holds the detection parameters (route filter, geofence,
	// cooldowns).
	Watch WatchConfig `json:"watch"`

	// Schedule drives the poll trigger: a cron expression ("*/2 * * * *",
	// "@every 90s") or a Go duration ("90s").
	Schedule string `json:"schedule"`

	Notifier NotifierConfig `json:"notifier,omitempty"`
	State    StateConfig    `json:"state,omitempty"`
}

// TelegramConfig configures the notification sink.
//
// Token and ChatID may also come from the environment (BUSWATCH_TG_TOKEN /
// BUSWATCH_TG_CHAT) so config files can stay secret-free.
type TelegramConfig struct {
	Token    string `json:"token,omitempty"`
	ChatID   int64  `json:"chat_id,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
	// SendTimeout is a Go duration string (e.g. "10s").
	SendTimeout string `json:"send_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// FeedConfig configures the upstream poll. Username/Password enable HTTP
// basic auth; they may also come from BUSWATCH_FEED_USER /
// BUSWATCH_FEED_PASS.
type FeedConfig struct {
	Endpoint string `json:"endpoint"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// Timeout is a Go duration string; the fetch is aborted after it.
	Timeout string `json:"timeout,omitempty"`
}

// WatchConfig holds the event-detection parameters.
//
// All durations are Go duration strings (e.g. "2m", "10m").
type WatchConfig struct {
	// Route is a regular expression matched against each vehicle's route
	// label. Vehicles with no route label always pass the filter.
	Route string `json:"route"`
	// Line is the human-facing line label used in notification text.
	Line string `json:"line,omitempty"`

	RefLat       float64 `json:"ref_lat"`
	RefLon       float64 `json:"ref_lon"`
	RadiusMeters float64 `json:"radius_m,omitempty"`
	Landmark     string  `json:"landmark,omitempty"`

	// DepartCooldown gates repeated "departed" notifications per vehicle;
	// NearCooldown gates repeated geofence-entry notifications.
	DepartCooldown string `json:"depart_cooldown,omitempty"`
	NearCooldown   string `json:"near_cooldown,omitempty"`
}

type NotifierConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// StateConfig controls tracking-state persistence.
//
// Example:
//
//	"state": { "driver": "file", "path": "./buswatch_state.json" }
type StateConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
