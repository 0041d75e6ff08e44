package config

import "time"

// Config holds runtime settings for the dukkan sync client.
//
// Fields:
//   - ServerURL: base URL of the document store (e.g., "http://127.0.0.1:8080").
//   - DatabasePath: path of the local SQLite replica file.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DeviceName: identifier stamped into lastModifiedBy on every write.
//   - Login, Password: tenant credentials, flags only. When set, the client
//     opens a session on startup; otherwise it runs offline until a session
//     is supplied.
type Config struct {
	ServerURL           string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	DeviceName          string
	Login               string
	Password            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "dukkan.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.DeviceName = defaultDeviceName()
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
