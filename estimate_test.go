// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package triglat_test

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/OpenPSG/triglat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spikeMatrix returns trials of n zero samples with a single spike at the
// given indices; a negative index leaves the trial silent.
func spikeMatrix(n int, spikes ...int) triglat.Matrix {
	m := make(triglat.Matrix, len(spikes))
	for i, k := range spikes {
		m[i] = make([]float64, n)
		if k >= 0 {
			m[i][k] = 1.0
		}
	}
	return m
}

func TestEstimateTriggerLatency(t *testing.T) {
	m := spikeMatrix(401, 190, 195, 200, 205, 210)

	res, err := triglat.EstimateTriggerLatency(context.Background(), m, 1000, -0.2)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Threshold)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Trials)
	assert.Empty(t, res.Excluded)
	assert.Equal(t, 0, res.ExcludedCount())

	want := []float64{-0.01, -0.005, 0.0, 0.005, 0.01}
	require.Len(t, res.Latencies, len(want))
	for i := range want {
		assert.InDelta(t, want[i], res.Latencies[i], 1e-12)
	}

	assert.InDelta(t, 0.0, res.Offset, 1e-12)
	assert.InDelta(t, 0.00707, res.Jitter, 1e-5)
	assert.InDelta(t, math.Sqrt(5e-5), res.Jitter, 1e-12)
	assert.Equal(t, 5, res.Count)
}

func TestEstimateTriggerLatencyExcludesSilentTrials(t *testing.T) {
	m := spikeMatrix(401, 190, -1, 200, -1, 210)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	res, err := triglat.EstimateTriggerLatency(context.Background(), m, 1000, -0.2, triglat.WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, res.Excluded)
	assert.Equal(t, 2, res.ExcludedCount())
	assert.Equal(t, []int{0, 2, 4}, res.Trials)
	assert.Equal(t, 3, res.Count)
	assert.InDelta(t, 0.0, res.Offset, 1e-12)

	assert.Equal(t, 2, strings.Count(buf.String(), "excluding trial without threshold crossing"))
	assert.Contains(t, buf.String(), "trial=3")
	assert.Contains(t, buf.String(), "estimated trigger latency")
}

func TestEstimateTriggerLatencyAllExcluded(t *testing.T) {
	m := spikeMatrix(100, -1, -1, -1)

	_, err := triglat.EstimateTriggerLatency(context.Background(), m, 1000, -0.2)
	assert.ErrorIs(t, err, triglat.ErrEmptyInput)
}

func TestEstimateTriggerLatencyAbort(t *testing.T) {
	m := spikeMatrix(401, 190, -1, 200)

	_, err := triglat.EstimateTriggerLatency(context.Background(), m, 1000, -0.2,
		triglat.WithCrossingPolicy(triglat.Abort))
	assert.ErrorIs(t, err, triglat.ErrNoCrossingFound)
	assert.Contains(t, err.Error(), "trial 1")
}

func TestEstimateTriggerLatencyOptions(t *testing.T) {
	// A ramp onset: with a lower quantile the crossing comes earlier.
	trial := make([]float64, 100)
	for i := 50; i < 100; i++ {
		trial[i] = float64(i - 49)
	}
	m := triglat.Matrix{trial, append([]float64(nil), trial...)}

	high, err := triglat.EstimateTriggerLatency(context.Background(), m, 100, 0)
	require.NoError(t, err)
	low, err := triglat.EstimateTriggerLatency(context.Background(), m, 100, 0,
		triglat.WithQuantile(0.6), triglat.WithQuantileMethod(triglat.Linear), triglat.WithDeviation(triglat.Sample))
	require.NoError(t, err)

	assert.Less(t, low.Threshold, high.Threshold)
	assert.Less(t, low.Offset, high.Offset)
	assert.InDelta(t, 0.0, low.Jitter, 1e-12)
}

func TestEstimateTriggerLatencyInvalid(t *testing.T) {
	ctx := context.Background()
	m := spikeMatrix(10, 5)

	_, err := triglat.EstimateTriggerLatency(ctx, m, 0, 0)
	assert.ErrorIs(t, err, triglat.ErrInvalidParameter)

	_, err = triglat.EstimateTriggerLatency(ctx, m, 1000, math.Inf(-1))
	assert.ErrorIs(t, err, triglat.ErrInvalidParameter)

	for _, q := range []float64{0, 1} {
		_, err = triglat.EstimateTriggerLatency(ctx, m, 1000, 0, triglat.WithQuantile(q))
		assert.ErrorIs(t, err, triglat.ErrInvalidParameter)
	}

	_, err = triglat.EstimateTriggerLatency(ctx, triglat.Matrix{{0, 1}, {0}}, 1000, 0)
	assert.ErrorIs(t, err, triglat.ErrInvalidParameter)

	_, err = triglat.EstimateTriggerLatency(ctx, nil, 1000, 0)
	assert.ErrorIs(t, err, triglat.ErrEmptyInput)

	_, err = triglat.EstimateTriggerLatency(ctx, triglat.Matrix{{math.Inf(1)}, {math.Inf(1)}}, 1000, 0)
	assert.ErrorIs(t, err, triglat.ErrInvalidParameter)
}

func TestParseEnums(t *testing.T) {
	method, err := triglat.ParseQuantileMethod("Linear")
	require.NoError(t, err)
	assert.Equal(t, triglat.Linear, method)
	assert.Equal(t, "linear", method.String())

	dev, err := triglat.ParseDeviation(" sample ")
	require.NoError(t, err)
	assert.Equal(t, triglat.Sample, dev)

	policy, err := triglat.ParseCrossingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, triglat.Exclude, policy)

	_, err = triglat.ParseQuantileMethod("nearest")
	assert.ErrorIs(t, err, triglat.ErrInvalidParameter)
	_, err = triglat.ParseDeviation("biased")
	assert.ErrorIs(t, err, triglat.ErrInvalidParameter)
	_, err = triglat.ParseCrossingPolicy("skip")
	assert.ErrorIs(t, err, triglat.ErrInvalidParameter)
}
