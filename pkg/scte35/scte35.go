// Copyright 2021 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or   implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package scte35 decodes and builds ANSI/SCTE-35 splice_info_section
// payloads: splice commands, segmentation descriptors, UPIDs, and the
// MPEG-2 CRC-32 trailer.
package scte35

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"github.com/bamiaux/iobit"
)

const (
	// Reserved bits shall be set to 1.
	Reserved = 0xFF
	// TicksPerSecond is the number of 90KHz ticks per second.
	TicksPerSecond = 90000
	// unixEpochToGPSEpoch is the number of seconds between 1970-01-01T00:00:00Z
	// (Unix Epoch) and 1980-01-06T00:00:00Z (GPS Epoch).
	unixEpochToGPSEpoch = uint32(315964800)
)

var (
	// ErrBufferUnderflow is returned when decoding fails to fully consume the
	// provided byte array.
	ErrBufferUnderflow = errors.New("buffer underflow")
	// ErrBufferOverflow is returned when decoding requires more bytes than are
	// available.
	ErrBufferOverflow = errors.New("buffer overflow")
	// ErrUnsupportedEncoding is returned if the signal is not base64 or hex.
	ErrUnsupportedEncoding = errors.New("invalid or unsupported encoding")
	// ErrInvalidTableID is returned when table_id is not 0xFC.
	ErrInvalidTableID = errors.New("invalid table_id")
	// ErrCRC32Invalid is returned when the CRC_32 trailer does not match the
	// computed checksum of the section.
	ErrCRC32Invalid = errors.New("CRC_32 does not validate")
	// ErrUnknownCommand reports an unrecognized splice command name. No
	// function in this package returns it.
	ErrUnknownCommand = errors.New("unknown splice command")
)

// Logger for emitting library debug traces; silent by default.
var Logger = log.New(io.Discard, "SCTE35 ", log.Ldate|log.Ltime|log.Lshortfile)

// DecodeBase64 decodes a base-64 string into a SpliceInfoSection. If an
// error occurs, the returned SpliceInfoSection holds the partial result up
// to the point of failure.
func DecodeBase64(s string) (*SpliceInfoSection, error) {
	sis := &SpliceInfoSection{}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return sis, ErrUnsupportedEncoding
	}
	return sis, sis.Decode(b)
}

// DecodeHex decodes a hexadecimal string (optionally "0x"-prefixed) into a
// SpliceInfoSection.
func DecodeHex(s string) (*SpliceInfoSection, error) {
	sis := &SpliceInfoSection{}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return sis, ErrUnsupportedEncoding
	}
	return sis, sis.Decode(b)
}

// DurationToTicks converts a duration to 90kHz ticks.
func DurationToTicks(d time.Duration) uint64 {
	return uint64(math.Ceil(float64(d) * TicksPerSecond / float64(time.Second)))
}

// TicksToDuration converts 90kHz ticks to a duration.
func TicksToDuration(ticks uint64) time.Duration {
	s := float64(ticks) / float64(TicksPerSecond)
	return time.Duration(int64(s * float64(time.Second)))
}

// BreakDuration specifies the duration of a commercial break.
type BreakDuration struct {
	AutoReturn bool   `xml:"autoReturn,attr" json:"autoReturn"`
	Duration   uint64 `xml:"duration,attr" json:"duration"`
}

// Bytes is a byte array that marshals to/from a hexadecimal string.
type Bytes []byte

// MarshalText encodes Bytes to a hexadecimal string.
func (bb Bytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(bb)), nil
}

// UnmarshalText decodes a hexadecimal string.
func (bb *Bytes) UnmarshalText(b []byte) error {
	tmp, err := hex.DecodeString(string(b))
	if err != nil {
		return err
	}
	*bb = tmp
	return nil
}

// NewUTCSpliceTime creates a UTCSpliceTime from seconds since GPS Epoch
// (1980-01-06T00:00:00Z).
func NewUTCSpliceTime(sec uint32) UTCSpliceTime {
	return UTCSpliceTime{time.Unix(int64(sec+unixEpochToGPSEpoch), 0)}
}

// UTCSpliceTime carries a utc_splice_time value.
type UTCSpliceTime struct {
	time.Time
}

// GPSSeconds returns the seconds since GPS Epoch.
func (t UTCSpliceTime) GPSSeconds() uint32 {
	return uint32(t.Time.Unix()) - unixEpochToGPSEpoch
}

// readerError translates an iobit.Reader's terminal state into a package error.
func readerError(r iobit.Reader) error {
	if r.LeftBits() > 0 {
		return ErrBufferUnderflow
	}
	if errors.Is(r.Error(), iobit.ErrOverflow) {
		return ErrBufferOverflow
	}
	return nil
}

// readerOverflowError reports whether a bounded, in-place command decode ran
// past the end of the buffer. Unlike readerError it does not treat leftover
// bits as an error: the reader is shared with the enclosing
// splice_info_section, which still has descriptors and a CRC_32 to read.
func readerOverflowError(r *iobit.Reader) error {
	if errors.Is(r.Error(), iobit.ErrOverflow) {
		return ErrBufferOverflow
	}
	return nil
}
