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
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Matrix holds one channel's epochs: one row per trial, one column per
// sample. A valid matrix is non-empty, rectangular and holds only finite
// samples.
type Matrix [][]float64

// Trials returns the number of rows.
func (m Matrix) Trials() int { return len(m) }

// Samples returns the number of columns, or 0 for an empty matrix.
func (m Matrix) Samples() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// Validate checks the shape and content of the matrix.
func (m Matrix) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: matrix has no trials", ErrEmptyInput)
	}
	n := len(m[0])
	if n == 0 {
		return fmt.Errorf("%w: matrix has no samples", ErrEmptyInput)
	}
	for i, trial := range m {
		if len(trial) != n {
			return fmt.Errorf("%w: trial %d has %d samples, want %d", ErrInvalidParameter, i, len(trial), n)
		}
		for j, v := range trial {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: trial %d sample %d is %v", ErrInvalidParameter, i, j, v)
			}
		}
	}
	return nil
}

// ComputeThreshold returns the q-quantile of every sample in the matrix.
// q must lie strictly inside (0,1). The result is always between the
// smallest and the largest sample.
func ComputeThreshold(m Matrix, q float64, method QuantileMethod) (float64, error) {
	if !(q > 0 && q < 1) {
		return 0, fmt.Errorf("%w: quantile %v outside (0,1)", ErrInvalidParameter, q)
	}

	var kind stat.CumulantKind
	switch method {
	case Empirical:
		kind = stat.Empirical
	case Linear:
		kind = stat.LinInterp
	default:
		return 0, fmt.Errorf("%w: unknown quantile method %v", ErrInvalidParameter, method)
	}

	if err := m.Validate(); err != nil {
		return 0, err
	}

	flat := make([]float64, 0, m.Trials()*m.Samples())
	for _, trial := range m {
		flat = append(flat, trial...)
	}
	sort.Float64s(flat)

	return stat.Quantile(q, kind, flat, nil), nil
}
