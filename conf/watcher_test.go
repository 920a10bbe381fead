package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// A file added through WatchPath triggers the same debounced reload as the
// config file itself.
func TestWatcherExtraPathTriggersReload(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nodecfg.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[server]\n"), 0o644))
	schemaPath := filepath.Join(dir, "pipeline.txt")
	require.NoError(t, os.WriteFile(schemaPath, []byte("class Tool:\n    type: str\n"), 0o644))

	cw, err := NewConfigWatcher(configPath)
	require.NoError(t, err)
	defer cw.Stop()
	require.NoError(t, cw.WatchPath(schemaPath))

	reloaded := make(chan *Config, 1)
	cw.OnReload(func(cfg *Config) error {
		select {
		case reloaded <- cfg:
		default:
		}
		return nil
	})
	cw.Start()

	// Editing the watched schema file, not the config, still reloads
	require.NoError(t, os.WriteFile(schemaPath, []byte("class Tool:\n    type: str\n    value: int\n"), 0o644))

	select {
	case cfg := <-reloaded:
		require.NotNil(t, cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired after watched file change")
	}
}

func TestWatcherWatchMissingPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nodecfg.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[server]\n"), 0o644))

	cw, err := NewConfigWatcher(configPath)
	require.NoError(t, err)
	defer cw.Stop()

	require.Error(t, cw.WatchPath(filepath.Join(dir, "absent.txt")))
}
