package config

import (
	"encoding/json"
	"os"

	"github.com/Racej255/CrosslandApocalypse/internal/flagx"
	"github.com/Racej255/CrosslandApocalypse/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Keys missing
// from the file leave the current value alone.
type JsonConfig struct {
	RemoteURL      string          `json:"remote_url"`
	APIKey         string          `json:"api_key"`
	ArchiveURL     string          `json:"archive_url"`
	DatabasePath   string          `json:"database_path"`
	DatasetDir     string          `json:"dataset_dir"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	OfflineEdits   *bool           `json:"offline_edits"`
	LogLevel       string          `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.RemoteURL, jc.RemoteURL)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.ArchiveURL, jc.ArchiveURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.DatasetDir, jc.DatasetDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OfflineEdits != nil {
		cfg.OfflineEdits = *jc.OfflineEdits
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
