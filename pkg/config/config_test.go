package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowlog/vfscache/internal/bytesize"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, DefaultIndexPath, cfg.Store.IndexPath)
	assert.Equal(t, DefaultDataPath, cfg.Store.DataPath)
	assert.False(t, cfg.Store.ReadOnly)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: DEBUG
  format: json
store:
  index_path: /var/cache/app/index.db2.x
  data_path: /var/cache/app/data.db2.x
  presize: 512Mi
  remove_after_crash: true
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/cache/app/index.db2.x", cfg.Store.IndexPath)
	assert.Equal(t, 512*bytesize.MiB, cfg.Store.Presize)
	assert.True(t, cfg.Store.RemoveAfterCrash)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadPresizeFormats(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bytesize.ByteSize
	}{
		{"binary unit", "1Gi", bytesize.GiB},
		{"decimal unit", "100MB", 100 * bytesize.MB},
		{"plain number", "1048576", bytesize.MiB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "store:\n  presize: "+tt.value+"\n")
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Store.Presize)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "bad level",
			mutate:  func(c *Config) { c.Logging.Level = "LOUD" },
			wantErr: "invalid logging level",
		},
		{
			name:    "bad format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "identical paths",
			mutate:  func(c *Config) { c.Store.DataPath = c.Store.IndexPath },
			wantErr: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Presize = bytesize.GiB
	cfg.Store.RemoveAfterCrash = true

	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Store.Presize, loaded.Store.Presize)
	assert.Equal(t, cfg.Store.RemoveAfterCrash, loaded.Store.RemoveAfterCrash)
}
