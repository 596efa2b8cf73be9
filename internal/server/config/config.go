// Package config handles configuration for the archive server, including
// defaults, the JSON overlay, command-line flags and the PORT variable.
package config

import (
	"os"
	"strings"
	"time"
)

// Config holds runtime settings for the archive server.
//
// Storage is chosen from the settings: DatabaseDSN selects Postgres; otherwise
// S3Bucket keeps the two JSON files as objects in that bucket; otherwise they
// live under DataDir. An empty JWTSecret disables request authentication.
type Config struct {
	HTTPAddr       string
	HealthAddrGRPC string
	StaticDir      string
	DataDir        string
	EntriesFile    string
	LogFile        string
	DatabaseDSN    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3User         string
	S3Password     string
	JWTSecret      string
	BodyLimit      int64
	ShutdownGrace  time.Duration
	LogLevel       string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.HealthAddrGRPC = ":50051"
	c.StaticDir = "public"
	c.DataDir = "data"
	c.EntriesFile = "entries.json"
	c.LogFile = "entries-log.json"
	c.S3Region = "us-east-1"
	c.BodyLimit = 1 << 20
	c.ShutdownGrace = 5 * time.Second
	c.LogLevel = "info"
}

// Storage names the storage the settings select: "postgres", "s3" or "files".
func (c *Config) Storage() string {
	switch {
	case c.DatabaseDSN != "":
		return "postgres"
	case c.S3Bucket != "":
		return "s3"
	default:
		return "files"
	}
}

// parseEnv applies PORT, which replaces the port of HTTPAddr.
func parseEnv(c *Config) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return
	}
	host := c.HTTPAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	c.HTTPAddr = host + ":" + port
}

// LoadConfig builds a Config by applying defaults, then PORT, then values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
