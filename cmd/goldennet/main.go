package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"goldennet/internal/config"
	"goldennet/internal/engine"
	"goldennet/internal/logging"
	"goldennet/internal/store"
	"goldennet/internal/trainer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgPath   string
	overrides config.Overrides

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "goldennet",
		Short:         "Golden-ratio numeric prediction engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "Path to YAML config")
	flags.StringVar(&a.overrides.StoreBackend, "store", "", "Store backend: file, sqlite or memory")
	flags.StringVar(&a.overrides.StorePath, "store-path", "", "Store directory (file) or database file (sqlite)")
	flags.StringVar(&a.overrides.LogLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.IntVar(&a.overrides.InputSize, "input-size", 0, "Network input size")
	flags.Int64Var(&a.overrides.Seed, "seed", 0, "Weight initialization seed")

	root.AddCommand(
		a.trainCmd(),
		a.predictCmd(),
		a.statusCmd(),
		a.resetCmd(),
		a.priceCmd(),
		a.contentLengthCmd(),
		a.trafficCmd(),
		a.insightsCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg := config.Default()
	if a.cfgPath != "" {
		loaded, err := config.Load(a.cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.ApplyOverrides(a.overrides)
	if err := cfg.Validate(); err != nil {
		return errors.WithMessage(err, "invalid config")
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openEngine opens the configured store and builds an engine on it. The
// returned closer releases the store.
func (a *app) openEngine(ctx context.Context, onEpoch func(epoch int, loss, lr float64)) (*engine.Engine, io.Closer, error) {
	mode, err := trainer.ParseMode(a.cfg.Mode)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(a.cfg.Store)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "open store")
	}
	eng, err := engine.New(ctx, engine.Options{
		InputSize:  a.cfg.InputSize,
		Seed:       a.cfg.Seed,
		Repository: st,
		Progress:   st,
		Mode:       mode,
		Logger:     a.logger,
		LogEvery:   a.cfg.LogEvery,
		OnEpoch:    onEpoch,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return eng, st, nil
}

// withEngine runs fn against a freshly opened engine and closes the store
// afterwards.
func (a *app) withEngine(ctx context.Context, fn func(*engine.Engine) error) error {
	eng, closer, err := a.openEngine(ctx, nil)
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(eng)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
