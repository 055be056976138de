// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package triglat

import "errors"

var (
	// ErrInvalidParameter reports a quantile outside (0,1), a non-positive
	// sampling rate, or a malformed matrix.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyInput reports missing trials or samples, or that every trial
	// was excluded.
	ErrEmptyInput = errors.New("empty input")
	// ErrNoCrossingFound reports a trial in which no sample exceeds the
	// threshold.
	ErrNoCrossingFound = errors.New("no threshold crossing found")
)
