package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultServerPort, cfg.GetServerPort())
	assert.Equal(t, "everforest", cfg.GetServerLogTheme())
	assert.Equal(t, 2048, cfg.GetMaxNodes())
	assert.False(t, cfg.Log.JSON)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodecfg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9100
log_theme = "gruvbox"

[log]
json = true
verbosity = 2

[[schemas]]
name = "pipeline"
path = "schemas/pipeline.txt"
ref_type = "Index"
root_class = "App"
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9100, cfg.GetServerPort())
	assert.Equal(t, "gruvbox", cfg.GetServerLogTheme())
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 2, cfg.Log.Verbosity)

	require.Len(t, cfg.Schemas, 1)
	assert.Equal(t, "pipeline", cfg.Schemas[0].Name)
	assert.Equal(t, "Index", cfg.Schemas[0].RefType)
	assert.Equal(t, "App", cfg.Schemas[0].RootClass)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	zero := 0
	negative := -1

	cases := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"empty config", func(c *Config) {}, true},
		{"zero port", func(c *Config) { c.Server.Port = &zero }, false},
		{"negative port", func(c *Config) { c.Server.Port = &negative }, false},
		{"negative verbosity", func(c *Config) { c.Log.Verbosity = -1 }, false},
		{"negative max nodes", func(c *Config) { c.Graph.MaxNodes = -1 }, false},
		{"schema without name", func(c *Config) {
			c.Schemas = []SchemaConfig{{Path: "x", RefType: "Index"}}
		}, false},
		{"schema without path", func(c *Config) {
			c.Schemas = []SchemaConfig{{Name: "a", RefType: "Index"}}
		}, false},
		{"schema without ref type", func(c *Config) {
			c.Schemas = []SchemaConfig{{Name: "a", Path: "x"}}
		}, false},
		{"duplicate schema names", func(c *Config) {
			c.Schemas = []SchemaConfig{
				{Name: "a", Path: "x", RefType: "Index"},
				{Name: "a", Path: "y", RefType: "Index"},
			}
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
