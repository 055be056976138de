// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package triglat estimates the timing offset and jitter between a trigger
// and the onset of a recorded stimulus.
//
// Each trial of an epoch matrix is searched for the first sample strictly
// above a threshold taken from a quantile of all samples. The resulting
// onset latencies, relative to the trigger, are reduced to a mean offset and
// a standard deviation (jitter).
package triglat
