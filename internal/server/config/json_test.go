package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":        ":4000",
		"health_addr_grpc": "",
		"s3_bucket":        "journal",
		"s3_user":          "admin",
		"jwt_secret":       "secret",
		"body_limit":       2048,
		"shutdown_grace":   "1s",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		want := &Config{
			HTTPAddr:      ":4000",
			StaticDir:     "public",
			DataDir:       "data",
			EntriesFile:   "entries.json",
			LogFile:       "entries-log.json",
			S3Bucket:      "journal",
			S3Region:      "us-east-1",
			S3User:        "admin",
			JWTSecret:     "secret",
			BodyLimit:     2048,
			ShutdownGrace: time.Second,
			LogLevel:      "info",
		}
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("flags override json", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathFlag, "-a", ":5000"}

		cfg := &Config{}
		parseJson(cfg)
		parseFlags(cfg)
		assert.Equal(t, ":5000", cfg.HTTPAddr)
		assert.Equal(t, "journal", cfg.S3Bucket)
	})

	t.Run("no config file leaves values alone", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{HTTPAddr: "defaults:1234", BodyLimit: 10}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, int64(10), cfg.BodyLimit)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
