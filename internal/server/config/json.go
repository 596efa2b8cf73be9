package config

import (
	"encoding/json"
	"os"

	"github.com/Racej255/CrosslandApocalypse/internal/flagx"
	"github.com/Racej255/CrosslandApocalypse/internal/timex"
)

// JsonConfig is the JSON shape of Config. Durations accept "5s" or integer
// nanoseconds (timex.Duration). Missing keys keep the current value.
type JsonConfig struct {
	HTTPAddr       string          `json:"http_addr"`
	HealthAddrGRPC *string         `json:"health_addr_grpc"`
	StaticDir      string          `json:"static_dir"`
	DataDir        string          `json:"data_dir"`
	EntriesFile    string          `json:"entries_file"`
	LogFile        string          `json:"log_file"`
	DatabaseDSN    string          `json:"database_dsn"`
	S3Bucket       string          `json:"s3_bucket"`
	S3Region       string          `json:"s3_region"`
	S3BaseEndpoint string          `json:"s3_base_endpoint"`
	S3User         string          `json:"s3_user"`
	S3Password     string          `json:"s3_password"`
	JWTSecret      string          `json:"jwt_secret"`
	BodyLimit      int64           `json:"body_limit"`
	ShutdownGrace  *timex.Duration `json:"shutdown_grace"`
	LogLevel       string          `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Without either flag nothing is loaded. It panics if
// the file cannot be read or holds invalid JSON.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	if c.HealthAddrGRPC != nil {
		config.HealthAddrGRPC = *c.HealthAddrGRPC
	}
	setString(&config.StaticDir, c.StaticDir)
	setString(&config.DataDir, c.DataDir)
	setString(&config.EntriesFile, c.EntriesFile)
	setString(&config.LogFile, c.LogFile)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3User, c.S3User)
	setString(&config.S3Password, c.S3Password)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.LogLevel, c.LogLevel)
	if c.BodyLimit > 0 {
		config.BodyLimit = c.BodyLimit
	}
	if c.ShutdownGrace != nil {
		config.ShutdownGrace = c.ShutdownGrace.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
