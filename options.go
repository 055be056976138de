// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package triglat

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultQuantile is the quantile of all samples used as onset threshold.
const DefaultQuantile = 0.95

// QuantileMethod selects how the threshold quantile is estimated.
type QuantileMethod int

const (
	// Empirical picks the smallest sample whose cumulative fraction reaches
	// the quantile.
	Empirical QuantileMethod = iota
	// Linear is the piecewise linear interpolation of the empirical CDF
	// through (i/n, x_i) for the sorted samples x_1..x_n, Hyndman and Fan
	// type 4. It returns x_1 for q <= 1/n. This is not the (n-1)q rule of
	// numpy's default percentile: the median of 1, 2, 3, 4 is 2, not 2.5.
	Linear
)

func (m QuantileMethod) String() string {
	switch m {
	case Empirical:
		return "empirical"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("QuantileMethod(%d)", int(m))
	}
}

// ParseQuantileMethod parses "empirical" or "linear".
func ParseQuantileMethod(s string) (QuantileMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "empirical":
		return Empirical, nil
	case "linear":
		return Linear, nil
	default:
		return 0, fmt.Errorf("%w: unknown quantile method %q", ErrInvalidParameter, s)
	}
}

// Deviation selects the standard deviation used for jitter.
type Deviation int

const (
	// Population divides by n.
	Population Deviation = iota
	// Sample divides by n-1.
	Sample
)

func (d Deviation) String() string {
	switch d {
	case Population:
		return "population"
	case Sample:
		return "sample"
	default:
		return fmt.Sprintf("Deviation(%d)", int(d))
	}
}

// ParseDeviation parses "population" or "sample".
func ParseDeviation(s string) (Deviation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "population":
		return Population, nil
	case "sample":
		return Sample, nil
	default:
		return 0, fmt.Errorf("%w: unknown deviation %q", ErrInvalidParameter, s)
	}
}

// CrossingPolicy decides what happens to a trial without a threshold crossing.
type CrossingPolicy int

const (
	// Exclude drops the trial, logs a warning and counts it.
	Exclude CrossingPolicy = iota
	// Abort fails the whole estimate with ErrNoCrossingFound.
	Abort
)

func (p CrossingPolicy) String() string {
	switch p {
	case Exclude:
		return "exclude"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("CrossingPolicy(%d)", int(p))
	}
}

// ParseCrossingPolicy parses "exclude" or "abort".
func ParseCrossingPolicy(s string) (CrossingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclude":
		return Exclude, nil
	case "abort":
		return Abort, nil
	default:
		return 0, fmt.Errorf("%w: unknown crossing policy %q", ErrInvalidParameter, s)
	}
}

type options struct {
	quantile  float64
	method    QuantileMethod
	deviation Deviation
	policy    CrossingPolicy
	logger    *slog.Logger
}

// Option configures EstimateTriggerLatency and AnalyzeEDF.
type Option func(*options)

func defaultOptions() options {
	return options{
		quantile: DefaultQuantile,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithQuantile sets the threshold quantile, which must lie in (0,1).
func WithQuantile(q float64) Option {
	return func(o *options) { o.quantile = q }
}

// WithQuantileMethod sets the quantile estimator.
func WithQuantileMethod(m QuantileMethod) Option {
	return func(o *options) { o.method = m }
}

// WithDeviation sets the standard deviation used for jitter.
func WithDeviation(d Deviation) Option {
	return func(o *options) { o.deviation = d }
}

// WithCrossingPolicy sets how trials without a crossing are handled.
func WithCrossingPolicy(p CrossingPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
