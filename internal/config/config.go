package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"goldennet/internal/logging"
	"goldennet/internal/store"
	"goldennet/internal/trainer"
)

// Defaults applied by Default and by Validate for unset fields.
const (
	DefaultInputSize = 10
	DefaultEpochs    = 100
	DefaultStorePath = "goldennet-data"
)

// Config captures the runtime knobs for the engine and the CLI.
type Config struct {
	InputSize int            `yaml:"input_size"`
	Epochs    int            `yaml:"epochs"`
	Seed      int64          `yaml:"seed"`
	LogEvery  int            `yaml:"log_every"`
	Mode      string         `yaml:"mode"`
	Store     store.Config   `yaml:"store"`
	Logging   logging.Config `yaml:"logging"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	InputSize    int
	Epochs       int
	Seed         int64
	LogEvery     int
	Mode         string
	StoreBackend string
	StorePath    string
	LogLevel     string
}

// Default returns a config that runs without a file.
func Default() *Config {
	return &Config{
		InputSize: DefaultInputSize,
		Epochs:    DefaultEpochs,
		LogEvery:  trainer.DefaultLogEvery,
		Mode:      string(trainer.ModeOutputOnly),
		Store: store.Config{
			Backend: store.BackendFile,
			Path:    DefaultStorePath,
		},
		Logging: logging.Config{Level: "info"},
	}
}

// Load reads and validates a Config from YAML. Keys absent from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := parseYAML(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.InputSize > 0 {
		c.InputSize = o.InputSize
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	if o.StoreBackend != "" {
		c.Store.Backend = o.StoreBackend
	}
	if o.StorePath != "" {
		c.Store.Path = o.StorePath
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.InputSize <= 0 {
		return errors.Errorf("input_size must be > 0 (got %d)", c.InputSize)
	}
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if _, err := trainer.ParseMode(c.Mode); err != nil {
		return err
	}
	switch c.Store.Backend {
	case store.BackendMemory:
	case store.BackendFile, store.BackendSQLite:
		if c.Store.Path == "" {
			return errors.Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	default:
		return errors.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.ProgressCap < 0 {
		return errors.Errorf("store.progress_cap must be >= 0 (got %d)", c.Store.ProgressCap)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.LogEvery <= 0 {
		c.LogEvery = trainer.DefaultLogEvery
	}
	return nil
}

func parseYAML(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}
