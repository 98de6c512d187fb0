package main

import (
	"github.com/spf13/cobra"

	"goldennet/internal/dataset"
	"goldennet/internal/engine"
	"goldennet/internal/predictor"
)

func (a *app) priceCmd() *cobra.Command {
	var (
		base float64
		pc   predictor.PriceContext
	)
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Predict an optimal price with budget and premium tiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				res, err := predictor.NewPrice(eng).Predict(base, pc)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().Float64Var(&base, "base", 0, "Base price")
	addPriceContextFlags(cmd, &pc)
	_ = cmd.MarkFlagRequired("base")
	return cmd
}

func addPriceContextFlags(cmd *cobra.Command, pc *predictor.PriceContext) {
	cmd.Flags().Float64Var(&pc.HistoricalConversion, "conversion", 0, "Historical conversion rate (default 0.5)")
	cmd.Flags().Float64Var(&pc.MarketFactor, "market", 0, "Market factor (default 1)")
	cmd.Flags().Float64Var(&pc.SeasonalFactor, "seasonal", 0, "Seasonal factor (default 1)")
}

func (a *app) contentLengthCmd() *cobra.Command {
	var (
		contentType string
		length      int
	)
	cmd := &cobra.Command{
		Use:   "content-length",
		Short: "Predict the golden-ratio content length for a content type",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := predictor.NewContentLength().Predict(contentType, length)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&contentType, "type", "blog", "Content type")
	cmd.Flags().IntVar(&length, "length", 0, "Current length in words")
	return cmd
}

func (a *app) trafficCmd() *cobra.Command {
	var (
		visits    int
		timeframe string
	)
	cmd := &cobra.Command{
		Use:   "traffic",
		Short: "Predict traffic growth for the current month",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := predictor.NewTraffic(nil).Predict(visits, timeframe)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&visits, "visits", 0, "Current visit count")
	cmd.Flags().StringVar(&timeframe, "timeframe", predictor.TimeframeMonth, "Prediction timeframe")
	return cmd
}

func (a *app) insightsCmd() *cobra.Command {
	var (
		req         predictor.InsightRequest
		historyPath string
	)
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Aggregate prioritized insights from every predictor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if historyPath != "" {
				series, err := dataset.LoadSeries(historyPath)
				if err != nil {
					return err
				}
				req.History = append(req.History, series...)
			}
			return a.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				agg := predictor.NewInsights(
					predictor.NewPrice(eng),
					predictor.NewContentLength(),
					predictor.NewTraffic(nil),
				)
				insights, err := agg.Aggregate(req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), insights)
			})
		},
	}
	cmd.Flags().Float64Var(&req.BasePrice, "base-price", 0, "Base price to analyze")
	addPriceContextFlags(cmd, &req.PriceContext)
	cmd.Flags().StringVar(&req.ContentType, "content-type", "", "Content type to analyze")
	cmd.Flags().IntVar(&req.ContentLength, "content-length", 0, "Current content length in words")
	cmd.Flags().IntVar(&req.CurrentVisits, "visits", 0, "Current visit count")
	cmd.Flags().StringVar(&req.Timeframe, "timeframe", "", "Traffic timeframe")
	cmd.Flags().Float64SliceVar(&req.History, "history", nil, "Numeric history series")
	cmd.Flags().StringVar(&historyPath, "history-file", "", "JSON file holding a numeric history series")
	return cmd
}
