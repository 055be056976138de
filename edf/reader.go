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
	"strconv"
	"strings"
	"time"
)

const (
	fixedHeaderBytes   = 256
	maxPreallocRecords = 1024
)

// Widths of the per-signal header fields, in file order.
var signalFieldWidths = [...]int{16, 80, 8, 8, 8, 8, 8, 80, 8, 32}

// Reader reads EDF/EDF+ files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open opens an EDF/EDF+ file for reading.
func Open(r io.ReadSeeker) (*Reader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to header: %w", err)
	}
	reader := bufio.NewReader(r)

	b := make([]byte, fixedHeaderBytes)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	hdr, err := parseFixedHeader(b)
	if err != nil {
		return nil, err
	}

	sb := make([]byte, hdr.SignalCount*fixedHeaderBytes)
	if _, err := io.ReadFull(reader, sb); err != nil {
		return nil, fmt.Errorf("error reading signal headers: %w", err)
	}
	if hdr.Signals, err = parseSignalHeaders(sb, hdr.SignalCount); err != nil {
		return nil, err
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() *Header {
	return er.hdr
}

func parseFixedHeader(b []byte) (*Header, error) {
	field := func(from, to int) string {
		return strings.TrimSpace(string(b[from:to]))
	}

	hdr := &Header{
		Version:     Version(field(0, 8)),
		PatientID:   field(8, 88),
		RecordingID: field(88, 168),
		Reserved:    field(192, 236),
	}

	startDate, err := time.Parse("02.01.06", field(168, 176))
	if err != nil {
		return nil, fmt.Errorf("%w: start date: %w", ErrMalformedHeader, err)
	}
	startTime, err := time.Parse("15.04.05", field(176, 184))
	if err != nil {
		return nil, fmt.Errorf("%w: start time: %w", ErrMalformedHeader, err)
	}
	hdr.StartTime = time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC)

	if hdr.HeaderBytes, err = strconv.Atoi(field(184, 192)); err != nil {
		return nil, fmt.Errorf("%w: header bytes: %w", ErrMalformedHeader, err)
	}
	if hdr.DataRecords, err = strconv.Atoi(field(236, 244)); err != nil {
		return nil, fmt.Errorf("%w: number of data records: %w", ErrMalformedHeader, err)
	}
	if hdr.DataRecordDuration, err = time.ParseDuration(field(244, 252) + "s"); err != nil {
		return nil, fmt.Errorf("%w: data record duration: %w", ErrMalformedHeader, err)
	}
	if hdr.SignalCount, err = strconv.Atoi(field(252, 256)); err != nil {
		return nil, fmt.Errorf("%w: signal count: %w", ErrMalformedHeader, err)
	}
	if hdr.SignalCount < 0 {
		return nil, fmt.Errorf("%w: negative signal count %d", ErrMalformedHeader, hdr.SignalCount)
	}
	if want := fixedHeaderBytes * (hdr.SignalCount + 1); hdr.HeaderBytes != want {
		return nil, fmt.Errorf("%w: header bytes %d, want %d for %d signals", ErrMalformedHeader, hdr.HeaderBytes, want, hdr.SignalCount)
	}
	if hdr.DataRecords < -1 {
		return nil, fmt.Errorf("%w: number of data records %d", ErrMalformedHeader, hdr.DataRecords)
	}

	return hdr, nil
}

// parseSignalHeaders decodes the per-signal block, which stores each field
// for all signals before moving on to the next field.
func parseSignalHeaders(b []byte, n int) ([]Signal, error) {
	signals := make([]Signal, n)

	off := 0
	for fieldIdx, width := range signalFieldWidths {
		for i := range signals {
			v := strings.TrimSpace(string(b[off : off+width]))
			off += width

			var err error
			sig := &signals[i]
			switch fieldIdx {
			case 0:
				sig.Label = v
			case 1:
				sig.TransducerType = v
			case 2:
				sig.PhysicalDimension = v
			case 3:
				sig.PhysicalMin, err = strconv.ParseFloat(v, 64)
			case 4:
				sig.PhysicalMax, err = strconv.ParseFloat(v, 64)
			case 5:
				sig.DigitalMin, err = strconv.Atoi(v)
			case 6:
				sig.DigitalMax, err = strconv.Atoi(v)
			case 7:
				sig.Prefiltering = v
			case 8:
				sig.SamplesPerRecord, err = strconv.Atoi(v)
			case 9:
				sig.Reserved = v
			}
			if err != nil {
				return nil, fmt.Errorf("%w: signal %d field %d: %w", ErrMalformedHeader, i, fieldIdx, err)
			}
			if sig.SamplesPerRecord < 0 {
				return nil, fmt.Errorf("%w: signal %d has %d samples per record", ErrMalformedHeader, i, sig.SamplesPerRecord)
			}
		}
	}

	return signals, nil
}

// SignalReader reads continuous signal data from an EDF/EDF+ file.
type SignalReader struct {
	r             io.ReadSeeker
	hdr           *Header
	signal        Signal
	currentRecord int       // Next record to load
	record        []float64 // Physical values of the loaded record
	pos           int       // Next unread sample in record
	recordSize    int       // Total size of one data record
	signalOffset  int       // Byte offset of the signal in a record
	buf           []byte
}

// Signal creates a new SignalReader for a specified signal index.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("signal index %d out of range", signalIndex)
	}

	signalOffset := 0
	for _, sig := range er.hdr.Signals[:signalIndex] {
		signalOffset += sig.SamplesPerRecord * 2
	}

	signal := er.hdr.Signals[signalIndex]
	return &SignalReader{
		r:            er.r,
		hdr:          er.hdr,
		signal:       signal,
		recordSize:   er.hdr.recordSize(),
		signalOffset: signalOffset,
		buf:          make([]byte, signal.SamplesPerRecord*2),
	}, nil
}

// Read fills the provided float64 slice with the physical values from the signal.
func (sr *SignalReader) Read(data []float64) (int, error) {
	n := 0
	for n < len(data) {
		if sr.pos >= len(sr.record) {
			if err := sr.loadRecord(); err != nil {
				return n, err
			}
		}

		c := copy(data[n:], sr.record[sr.pos:])
		sr.pos += c
		n += c
	}

	return n, nil
}

// ReadRecord returns the physical values of the next data record in a newly
// allocated slice.
func (sr *SignalReader) ReadRecord() ([]float64, error) {
	if err := sr.loadRecord(); err != nil {
		return nil, err
	}
	sr.pos = len(sr.record)

	return append([]float64(nil), sr.record...), nil
}

func (sr *SignalReader) loadRecord() error {
	if sr.currentRecord >= sr.hdr.DataRecords {
		return io.EOF
	}

	pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset)
	if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to position: %w", err)
	}
	if _, err := io.ReadFull(sr.r, sr.buf); err != nil {
		if err == io.EOF {
			// The header promised more records than the file holds.
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("error reading record %d: %w", sr.currentRecord, err)
	}

	if sr.record == nil {
		sr.record = make([]float64, sr.signal.SamplesPerRecord)
	}
	for i := range sr.record {
		digital := int16(binary.LittleEndian.Uint16(sr.buf[i*2:]))
		sr.record[i] = convertDigitalToPhysical(digital, sr.signal.DigitalMin, sr.signal.DigitalMax, sr.signal.PhysicalMin, sr.signal.PhysicalMax)
	}

	sr.currentRecord++
	sr.pos = 0
	return nil
}

// Epochs reads every data record of a signal as one trial. The result is
// rectangular: each row holds SamplesPerRecord samples.
func (er *Reader) Epochs(signalIndex int) ([][]float64, error) {
	if er.hdr.DataRecords < 0 {
		return nil, fmt.Errorf("%w: number of data records is unknown", ErrMalformedHeader)
	}

	sr, err := er.Signal(signalIndex)
	if err != nil {
		return nil, err
	}

	// DataRecords comes from the file; the read fails on a short file long
	// before the slice would need to grow this far.
	epochs := make([][]float64, 0, min(er.hdr.DataRecords, maxPreallocRecords))
	for {
		record, err := sr.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		epochs = append(epochs, record)
	}

	return epochs, nil
}

// convertDigitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func convertDigitalToPhysical(digital int16, dmin, dmax int, pmin, pmax float64) float64 {
	if dmax == dmin {
		return 0
	}
	return pmin + (float64(digital)-float64(dmin))*(pmax-pmin)/float64(dmax-dmin)
}
