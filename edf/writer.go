// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// As recommended by the EDF standard.
const maxRecordBytes = 61440

// Writer writes EDF files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int // Number of data records written so far.
}

// Create creates a new EDF writer that writes to the given writer.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	if hdr.SignalCount == 0 {
		hdr.SignalCount = len(hdr.Signals)
	}
	if hdr.SignalCount != len(hdr.Signals) {
		return nil, fmt.Errorf("signal count %d does not match %d signal headers", hdr.SignalCount, len(hdr.Signals))
	}
	if hdr.Version == "" {
		hdr.Version = Version0
	}
	hdr.DataRecords = -1 // Unknown number of data records (at this time).

	ew := &Writer{w: w, hdr: &hdr}
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Close finalizes the EDF file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record to the EDF file.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	if len(signals) != ew.hdr.SignalCount {
		return fmt.Errorf("expected %d signals, got %d", ew.hdr.SignalCount, len(signals))
	}

	var totalSamples int
	for i, signal := range signals {
		if want := ew.hdr.Signals[i].SamplesPerRecord; len(signal) != want {
			return fmt.Errorf("signal %d: expected %d samples, got %d", i, want, len(signal))
		}
		totalSamples += len(signal)
	}
	if totalSamples*2 > maxRecordBytes {
		return fmt.Errorf("data record too large: %d bytes, max is %d bytes", totalSamples*2, maxRecordBytes)
	}

	if _, err := ew.w.Seek(int64(ew.hdr.HeaderBytes)+int64(ew.dataRecords)*int64(ew.hdr.recordSize()), io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to record %d: %w", ew.dataRecords, err)
	}

	writer := bufio.NewWriter(ew.w)
	buf := make([]byte, 2)
	for i, samples := range signals {
		signal := ew.hdr.Signals[i]
		for _, sample := range samples {
			digital := convertPhysicalToDigital(sample, signal.PhysicalMin, signal.PhysicalMax, signal.DigitalMin, signal.DigitalMax)
			binary.LittleEndian.PutUint16(buf, uint16(digital))
			if _, err := writer.Write(buf); err != nil {
				return err
			}
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// WriteEpochs writes one data record per trial for a single-signal file.
func (ew *Writer) WriteEpochs(epochs [][]float64) error {
	if ew.hdr.SignalCount != 1 {
		return fmt.Errorf("epochs require exactly one signal, header has %d", ew.hdr.SignalCount)
	}
	for i, trial := range epochs {
		if err := ew.WriteRecord([][]float64{trial}); err != nil {
			return fmt.Errorf("error writing epoch %d: %w", i, err)
		}
	}
	return nil
}

func (ew *Writer) writeHeader() error {
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	ew.hdr.HeaderBytes = fixedHeaderBytes + (ew.hdr.SignalCount * fixedHeaderBytes)

	hw := &headerWriter{w: bufio.NewWriter(ew.w)}
	hw.field(8, string(ew.hdr.Version))
	hw.field(80, ew.hdr.PatientID)
	hw.field(80, ew.hdr.RecordingID)
	hw.field(8, ew.hdr.StartTime.Format("02.01.06"))
	hw.field(8, ew.hdr.StartTime.Format("15.04.05"))
	hw.field(8, strconv.Itoa(ew.hdr.HeaderBytes))
	hw.field(44, ew.hdr.Reserved)
	hw.field(8, strconv.Itoa(ew.hdr.DataRecords))
	hw.field(8, formatNumber(ew.hdr.DataRecordDuration.Seconds()))
	hw.field(4, strconv.Itoa(ew.hdr.SignalCount))

	fields := []func(Signal) string{
		func(s Signal) string { return s.Label },
		func(s Signal) string { return s.TransducerType },
		func(s Signal) string { return s.PhysicalDimension },
		func(s Signal) string { return formatNumber(s.PhysicalMin) },
		func(s Signal) string { return formatNumber(s.PhysicalMax) },
		func(s Signal) string { return strconv.Itoa(s.DigitalMin) },
		func(s Signal) string { return strconv.Itoa(s.DigitalMax) },
		func(s Signal) string { return s.Prefiltering },
		func(s Signal) string { return strconv.Itoa(s.SamplesPerRecord) },
		func(s Signal) string { return s.Reserved },
	}
	for i, value := range fields {
		for _, signal := range ew.hdr.Signals {
			hw.field(signalFieldWidths[i], value(signal))
		}
	}

	if hw.err != nil {
		return hw.err
	}
	return hw.w.Flush()
}

// headerWriter writes space padded ASCII fields and remembers the first error.
type headerWriter struct {
	w   *bufio.Writer
	err error
}

func (hw *headerWriter) field(width int, value string) {
	if hw.err != nil {
		return
	}
	if len(value) > width {
		value = value[:width]
	}
	_, hw.err = fmt.Fprintf(hw.w, "%-*s", width, value)
}

// convertPhysicalToDigital converts a physical value to a digital value using the calibration factors.
func convertPhysicalToDigital(physical float64, pmin, pmax float64, dmin, dmax int) int16 {
	if pmax == pmin {
		return 0
	}
	digital := math.Round(((physical - pmin) * (float64(dmax - dmin)) / (pmax - pmin)) + float64(dmin))
	digital = math.Max(float64(dmin), math.Min(float64(dmax), digital))
	return int16(digital)
}

// formatNumber renders a value in at most 8 characters, keeping as many
// decimals as fit.
func formatNumber(val float64) string {
	s := strconv.FormatFloat(val, 'f', -1, 64)
	if len(s) <= 8 {
		return s
	}
	for prec := 6; prec >= 0; prec-- {
		s = strconv.FormatFloat(val, 'f', prec, 64)
		if len(s) <= 8 {
			return s
		}
	}
	return s
}
