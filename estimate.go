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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Result is the outcome of EstimateTriggerLatency.
type Result struct {
	Threshold float64   // Onset threshold derived from the quantile
	Latencies []float64 // Onset latency of each included trial, in seconds
	Trials    []int     // Row index of each entry in Latencies
	Excluded  []int     // Rows without a threshold crossing
	Summary
}

// ExcludedCount returns the number of trials dropped for lack of a crossing.
func (r *Result) ExcludedCount() int {
	return len(r.Excluded)
}

// EstimateTriggerLatency computes the onset latency of every trial in m,
// relative to the trigger, and summarizes them into an offset and jitter.
//
// rate is the sampling rate in Hz and start the time of the first column
// relative to the trigger, in seconds. Trials without a threshold crossing
// are excluded and logged unless the Abort policy is set. If every trial is
// excluded the call fails with ErrEmptyInput. The matrix is not modified.
func EstimateTriggerLatency(ctx context.Context, m Matrix, rate, start float64, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !(rate > 0) || math.IsInf(rate, 1) {
		return nil, fmt.Errorf("%w: sampling rate %v must be positive", ErrInvalidParameter, rate)
	}
	if math.IsNaN(start) || math.IsInf(start, 0) {
		return nil, fmt.Errorf("%w: epoch start %v must be finite", ErrInvalidParameter, start)
	}

	threshold, err := ComputeThreshold(m, o.quantile, o.method)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Threshold: threshold,
		Latencies: make([]float64, 0, len(m)),
		Trials:    make([]int, 0, len(m)),
	}

	for i, trial := range m {
		latency, err := FirstCrossingLatency(trial, threshold, rate, start)
		switch {
		case err == nil:
			res.Latencies = append(res.Latencies, latency)
			res.Trials = append(res.Trials, i)
		case errors.Is(err, ErrNoCrossingFound) && o.policy == Exclude:
			o.logger.LogAttrs(ctx, slog.LevelWarn, "excluding trial without threshold crossing",
				slog.Int("trial", i), slog.Float64("threshold", threshold))
			res.Excluded = append(res.Excluded, i)
		default:
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}
	}

	if len(res.Latencies) == 0 {
		return nil, fmt.Errorf("%w: all %d trials lack a threshold crossing", ErrEmptyInput, len(m))
	}

	if res.Summary, err = SummarizeLatencies(res.Latencies, o.deviation); err != nil {
		return nil, err
	}

	o.logger.LogAttrs(ctx, slog.LevelDebug, "estimated trigger latency",
		slog.Int("trials", len(m)),
		slog.Int("excluded", len(res.Excluded)),
		slog.Float64("threshold", threshold),
		slog.Float64("offset", res.Offset),
		slog.Float64("jitter", res.Jitter))

	return res, nil
}
