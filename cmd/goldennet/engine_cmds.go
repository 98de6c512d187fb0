package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"goldennet/internal/dataset"
	"goldennet/internal/engine"
	"goldennet/internal/metrics"
	"goldennet/internal/model"
)

func (a *app) trainCmd() *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the engine on samples from a file or directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := loadSamples(dataPath)
			if err != nil {
				return err
			}
			a.logger.Info("loaded samples", zap.String("path", dataPath), zap.Int("count", len(samples)))

			bar := progressbar.NewOptions(a.cfg.Epochs,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("training"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionClearOnFinish(),
			)
			eng, closer, err := a.openEngine(cmd.Context(), func(epoch int, loss, lr float64) {
				bar.Describe(fmt.Sprintf("loss %.6f lr %.4f", loss, lr))
				_ = bar.Add(1)
			})
			if err != nil {
				return err
			}
			defer closer.Close()

			res, err := eng.Train(cmd.Context(), samples, a.cfg.Epochs)
			_ = bar.Finish()
			if err != nil {
				return err
			}
			res.Losses = nil
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Sample file (.json/.jsonl) or directory of sample files")
	cmd.Flags().IntVar(&a.overrides.Epochs, "epochs", 0, "Number of training epochs")
	cmd.Flags().StringVar(&a.overrides.Mode, "mode", "", "Training mode: output or backprop")
	cmd.Flags().IntVar(&a.overrides.LogEvery, "log-every", 0, "Log every N epochs")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func loadSamples(path string) ([]dataset.Sample, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "training data")
	}
	if info.IsDir() {
		return dataset.LoadDir(path)
	}
	return dataset.LoadSamples(path)
}

func (a *app) predictCmd() *cobra.Command {
	var batchPath string
	cmd := &cobra.Command{
		Use:   "predict [values...]",
		Short: "Run a forward pass on one input vector or a batch file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				if batchPath != "" {
					inputs, err := loadBatch(batchPath)
					if err != nil {
						return err
					}
					outputs, err := eng.PredictBatch(cmd.Context(), inputs)
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), outputs)
				}
				input, err := parseVector(args)
				if err != nil {
					return err
				}
				out, err := eng.Predict(input)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&batchPath, "batch", "", "JSON file holding an array of input vectors")
	return cmd
}

func parseVector(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, s := range args {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(model.ErrInvalidInput, "value %d: %q is not a number", i, s)
		}
		out[i] = v
	}
	return out, nil
}

func loadBatch(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read batch")
	}
	var inputs [][]float64
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, errors.Wrapf(err, "parse batch %q", path)
	}
	return inputs, nil
}

type statusOutput struct {
	engine.Status
	Progress []metrics.Snapshot `json:"progress,omitempty"`
}

func (a *app) statusCmd() *cobra.Command {
	var withProgress bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show architecture, training state and model size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				out := statusOutput{Status: eng.Status()}
				if withProgress {
					snaps, err := eng.Snapshots(cmd.Context())
					if err != nil {
						return err
					}
					out.Progress = snaps
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().BoolVar(&withProgress, "progress", false, "Include retained training progress snapshots")
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reinitialize weights and clear the stored model and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				if err := eng.Reset(cmd.Context()); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), eng.Status())
			})
		},
	}
}
