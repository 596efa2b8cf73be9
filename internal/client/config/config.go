package config

import "time"

// Config holds runtime settings for the journal client.
//
// Backend selection:
//   - RemoteURL set: the PostgREST-shaped remote store, authenticated with APIKey.
//   - otherwise ArchiveURL set: the companion server's /api/entries surface.
//   - otherwise: local-fallback mode, read-only for persistence.
type Config struct {
	RemoteURL  string
	APIKey     string
	ArchiveURL string

	// DatabasePath is the SQLite file holding local state and the seed record.
	DatabasePath string

	// DatasetDir overrides the bundled seed datasets when set.
	DatasetDir string

	RequestTimeout time.Duration

	// OfflineEdits mirrors rejected local-fallback mutations into the working
	// set and the local snapshot.
	OfflineEdits bool

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "journal.db"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// Mode names the backend the settings select: "rest", "archive" or "local".
func (c *Config) Mode() string {
	switch {
	case c.RemoteURL != "":
		return "rest"
	case c.ArchiveURL != "":
		return "archive"
	default:
		return "local"
	}
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
