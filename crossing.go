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
)

// FirstCrossingLatency returns the latency in seconds of the first sample
// strictly greater than threshold: index/rate + start. start is the time
// of the first sample relative to the trigger and is usually negative.
func FirstCrossingLatency(trial []float64, threshold, rate, start float64) (float64, error) {
	if !(rate > 0) || math.IsInf(rate, 1) {
		return 0, fmt.Errorf("%w: sampling rate %v must be positive", ErrInvalidParameter, rate)
	}
	if math.IsNaN(start) || math.IsInf(start, 0) {
		return 0, fmt.Errorf("%w: epoch start %v must be finite", ErrInvalidParameter, start)
	}
	if len(trial) == 0 {
		return 0, fmt.Errorf("%w: trial has no samples", ErrEmptyInput)
	}

	for i, v := range trial {
		if v > threshold {
			return float64(i)/rate + start, nil
		}
	}

	return 0, fmt.Errorf("%w: threshold %v", ErrNoCrossingFound, threshold)
}
