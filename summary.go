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
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of onset latencies, in seconds.
type Summary struct {
	Offset float64 // Mean latency
	Jitter float64 // Standard deviation of latencies
	Median float64
	Min    float64
	Max    float64
	Count  int // Number of latencies summarized
}

// SummarizeLatencies reduces latencies to their mean offset and jitter.
// Jitter uses the population standard deviation unless Sample is
// requested; a single latency has zero jitter either way.
func SummarizeLatencies(latencies []float64, dev Deviation) (Summary, error) {
	if len(latencies) == 0 {
		return Summary{}, fmt.Errorf("%w: no latencies to summarize", ErrEmptyInput)
	}

	var (
		s        Summary
		variance float64
	)
	switch dev {
	case Population:
		s.Offset, variance = stat.PopMeanVariance(latencies, nil)
	case Sample:
		if len(latencies) == 1 {
			s.Offset = latencies[0]
		} else {
			s.Offset, variance = stat.MeanVariance(latencies, nil)
		}
	default:
		return Summary{}, fmt.Errorf("%w: unknown deviation %v", ErrInvalidParameter, dev)
	}
	// Rounding can leave a tiny negative variance for identical latencies.
	s.Jitter = math.Sqrt(math.Max(variance, 0))

	var err error
	if s.Median, err = stats.Median(latencies); err != nil {
		return Summary{}, fmt.Errorf("error computing median: %w", err)
	}
	if s.Min, err = stats.Min(latencies); err != nil {
		return Summary{}, fmt.Errorf("error computing minimum: %w", err)
	}
	if s.Max, err = stats.Max(latencies); err != nil {
		return Summary{}, fmt.Errorf("error computing maximum: %w", err)
	}
	s.Count = len(latencies)

	return s, nil
}
