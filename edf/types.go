// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package edf stores epoched recordings in EDF/EDF+ files, one data record
// per trial.
package edf

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Version string

const (
	// Version0 represents the version of the EDF/EDF+ standard.
	Version0 Version = "0"
)

var (
	// ErrSignalNotFound is returned when no signal carries the requested label.
	ErrSignalNotFound = errors.New("signal not found")
	// ErrMalformedHeader is returned when a header field cannot be parsed.
	ErrMalformedHeader = errors.New("malformed header")
)

// Header represents the EDF/EDF+ file header.
type Header struct {
	Version            Version       // Version of the EDF/EDF+ standard (usually "0")
	PatientID          string        // Identification of the patient
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start date of the recording
	HeaderBytes        int           // Number of bytes in the header
	Reserved           string        // "EDF+C" or "EDF+D" for EDF+ files
	DataRecordDuration time.Duration // Duration of a single data record, i.e. one epoch
	DataRecords        int           // Number of data records, -1 if unknown
	SignalCount        int           // Number of signals in each data record
	Signals            []Signal      // Details of each signal
}

// Signal represents the characteristics of each signal in the EDF/EDF+ file.
type Signal struct {
	Label             string  // Label of the signal (e.g., Audio, EEG Fpz-Cz)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical dimension (e.g., uV, mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
	Reserved          string  // Reserved for future use
}

// SignalIndex returns the index of the first signal whose label matches,
// ignoring case and surrounding whitespace.
func (h *Header) SignalIndex(label string) (int, error) {
	want := strings.TrimSpace(label)
	for i, sig := range h.Signals {
		if strings.EqualFold(sig.Label, want) {
			return i, nil
		}
	}

	return -1, fmt.Errorf("%w: %q", ErrSignalNotFound, label)
}

// SampleRate returns the sampling rate of signal i in Hz, or 0 if the
// record duration is unknown.
func (h *Header) SampleRate(i int) float64 {
	if i < 0 || i >= len(h.Signals) || h.DataRecordDuration <= 0 {
		return 0
	}

	return float64(h.Signals[i].SamplesPerRecord) / h.DataRecordDuration.Seconds()
}

// recordSize is the size in bytes of one data record across all signals.
func (h *Header) recordSize() int {
	size := 0
	for _, sig := range h.Signals {
		size += sig.SamplesPerRecord * 2
	}
	return size
}
