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
	"fmt"
	"io"
	"log/slog"

	"github.com/OpenPSG/triglat/edf"
	"github.com/google/uuid"
)

// Report is the outcome of AnalyzeEDF.
type Report struct {
	RunID      uuid.UUID
	Channel    string
	SampleRate float64 // Hz, derived from the record duration
	EpochStart float64 // Seconds relative to the trigger
	*Result
}

// AnalyzeEDF estimates trigger latency from an epoched EDF/EDF+ file in
// which every data record holds one trial. channel selects the signal by
// label and start is the time of the first sample of each record relative
// to the trigger.
func AnalyzeEDF(ctx context.Context, r io.ReadSeeker, channel string, start float64, opts ...Option) (*Report, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	rep := &Report{
		RunID:      uuid.New(),
		Channel:    channel,
		EpochStart: start,
	}
	logger := o.logger.With(slog.String("run_id", rep.RunID.String()), slog.String("channel", channel))

	er, err := edf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("error opening recording: %w", err)
	}
	hdr := er.Header()

	idx, err := hdr.SignalIndex(channel)
	if err != nil {
		return nil, err
	}
	rep.SampleRate = hdr.SampleRate(idx)

	epochs, err := er.Epochs(idx)
	if err != nil {
		return nil, fmt.Errorf("error reading epochs: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "loaded epochs",
		slog.Int("trials", len(epochs)),
		slog.Int("samples", hdr.Signals[idx].SamplesPerRecord),
		slog.Float64("sample_rate", rep.SampleRate))

	opts = append(opts[:len(opts):len(opts)], WithLogger(logger))
	if rep.Result, err = EstimateTriggerLatency(ctx, epochs, rep.SampleRate, start, opts...); err != nil {
		return nil, err
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "trigger latency",
		slog.Float64("offset", rep.Offset),
		slog.Float64("jitter", rep.Jitter),
		slog.Int("excluded", rep.ExcludedCount()))

	return rep, nil
}
