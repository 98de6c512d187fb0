// Package predictor turns raw business numbers into feature vectors, runs
// them through the network or the φ utilities, and shapes typed results.
package predictor

import (
	"math"

	"github.com/pkg/errors"

	"goldennet/internal/model"
	"goldennet/internal/phi"
)

// PriceFeatureSize is the length of the price feature vector. An engine used
// by Price must be built with this input size.
const PriceFeatureSize = 10

// Forwarder runs a feature vector through a network.
type Forwarder interface {
	Predict(input []float64) ([]float64, error)
}

// PriceContext carries the market signals of a price prediction. Zero fields
// take neutral defaults: conversion 0.5, market and seasonal factors 1.
type PriceContext struct {
	HistoricalConversion float64 `json:"historical_conversion"`
	MarketFactor         float64 `json:"market_factor"`
	SeasonalFactor       float64 `json:"seasonal_factor"`
}

func (c PriceContext) withDefaults() PriceContext {
	if c.HistoricalConversion == 0 {
		c.HistoricalConversion = 0.5
	}
	if c.MarketFactor == 0 {
		c.MarketFactor = 1
	}
	if c.SeasonalFactor == 0 {
		c.SeasonalFactor = 1
	}
	return c
}

// PriceVariants are the three tiers offered around a predicted price.
type PriceVariants struct {
	Budget   float64 `json:"budget"`
	Standard float64 `json:"standard"`
	Premium  float64 `json:"premium"`
}

// PriceResult is the outcome of Price.Predict.
type PriceResult struct {
	OptimalPrice float64       `json:"optimal_price"`
	Variants     PriceVariants `json:"variants"`
	// Confidence is the first network output as a percentage.
	Confidence float64 `json:"confidence"`
}

// Price predicts a price from a base price and market context.
type Price struct {
	net Forwarder
}

// NewPrice returns a price predictor backed by net.
func NewPrice(net Forwarder) *Price {
	return &Price{net: net}
}

// Features builds the network input for a price prediction.
func (p *Price) Features(basePrice float64, pc PriceContext) []float64 {
	pc = pc.withDefaults()
	f := make([]float64, PriceFeatureSize)
	f[0] = basePrice / 1000
	f[1] = pc.HistoricalConversion
	f[2] = pc.MarketFactor
	f[3] = pc.SeasonalFactor
	f[4] = phi.Phi / 2
	return f
}

// Predict scales the golden-ratio price, round(base·φ, 2), by the first
// network output and derives the budget and premium tiers from it.
func (p *Price) Predict(basePrice float64, pc PriceContext) (PriceResult, error) {
	if basePrice <= 0 || math.IsNaN(basePrice) {
		return PriceResult{}, errors.Wrapf(model.ErrInvalidArgument, "base price must be > 0 (got %v)", basePrice)
	}
	pred, err := p.net.Predict(p.Features(basePrice, pc))
	if err != nil {
		return PriceResult{}, errors.WithMessage(err, "price prediction")
	}
	if len(pred) == 0 {
		return PriceResult{}, errors.Wrap(model.ErrInvalidInput, "price prediction: empty network output")
	}
	optimal := phi.Round(basePrice*phi.Phi, 2)
	final := phi.Round(optimal*pred[0], 2)
	return PriceResult{
		OptimalPrice: final,
		Variants: PriceVariants{
			Budget:   phi.Divide(basePrice),
			Standard: final,
			Premium:  phi.Multiply(final),
		},
		Confidence: phi.Round(math.Min(100, math.Max(0, pred[0]*100)), 1),
	}, nil
}
