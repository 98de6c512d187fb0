package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldennet/internal/logging"
	"goldennet/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goldennet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
input_size: 8
epochs: 55
seed: 7
log_every: 13
mode: backprop
store:
  backend: sqlite
  path: /tmp/goldennet.db
  progress_cap: 21
logging:
  level: debug
  development: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		InputSize: 8,
		Epochs:    55,
		Seed:      7,
		LogEvery:  13,
		Mode:      "backprop",
		Store:     store.Config{Backend: "sqlite", Path: "/tmp/goldennet.db", ProgressCap: 21},
		Logging:   logging.Config{Level: "debug", Development: true},
	}, cfg)
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "epochs: 21\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultInputSize, cfg.InputSize)
	assert.Equal(t, 21, cfg.Epochs)
	assert.Equal(t, store.BackendFile, cfg.Store.Backend)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)

	cfg, err = Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "input_size: 4\nbatch_size: 8\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"input size": func(c *Config) { c.InputSize = 0 },
		"epochs":     func(c *Config) { c.Epochs = -1 },
		"mode":       func(c *Config) { c.Mode = "sgd" },
		"backend":    func(c *Config) { c.Store.Backend = "redis" },
		"path":       func(c *Config) { c.Store.Path = "" },
		"cap":        func(c *Config) { c.Store.ProgressCap = -2 },
		"log level":  func(c *Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())

	cfg := Default()
	cfg.Store = store.Config{Backend: store.BackendMemory}
	cfg.LogEvery = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 21, cfg.LogEvery)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{
		InputSize:    4,
		Seed:         99,
		StoreBackend: store.BackendMemory,
		LogLevel:     "error",
	})
	assert.Equal(t, 4, cfg.InputSize)
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, DefaultEpochs, cfg.Epochs)
	assert.Equal(t, store.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, DefaultStorePath, cfg.Store.Path)
	assert.Equal(t, "error", cfg.Logging.Level)
}
