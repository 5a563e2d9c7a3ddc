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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package scte35

import (
	"encoding/xml"
	"fmt"

	"github.com/bamiaux/iobit"
)

// TimeSignalType is the splice_command_type for time_signal().
const TimeSignalType = 0x06

// NewTimeSignal creates a new TimeSignal for the given PTS time.
func NewTimeSignal(ptsTime uint64) *TimeSignal {
	return &TimeSignal{
		SpliceTime: SpliceTime{PTSTime: &ptsTime},
	}
}

// TimeSignal provides a time synchronization mechanism that can be used in
// conjunction with other splice commands carrying segmentation_descriptors.
type TimeSignal struct {
	XMLName    xml.Name   `xml:"http://www.scte.org/schemas/35 TimeSignal" json:"-"`
	JSONType   uint32     `xml:"-" json:"type"`
	SpliceTime SpliceTime `xml:"http://www.scte.org/schemas/35 SpliceTime" json:"spliceTime"`
}

// Type returns the splice_command_type.
func (cmd *TimeSignal) Type() uint32 {
	cmd.JSONType = TimeSignalType
	return TimeSignalType
}

func (cmd *TimeSignal) timeSpecifiedFlag() bool {
	return cmd.SpliceTime.timeSpecifiedFlag()
}

func (cmd *TimeSignal) decode(r *iobit.Reader) error {
	if r.Bit() {
		r.Skip(6) // reserved
		ptsTime := r.Uint64(33)
		cmd.SpliceTime.PTSTime = &ptsTime
	} else {
		r.Skip(7) // reserved
	}
	if err := readerOverflowError(r); err != nil {
		return fmt.Errorf("time_signal: %w", err)
	}
	return nil
}

func (cmd *TimeSignal) encode() ([]byte, error) {
	buf := make([]byte, cmd.length())
	w := iobit.NewWriter(buf)
	if cmd.timeSpecifiedFlag() {
		w.PutBit(true)
		w.PutUint32(6, Reserved)
		w.PutUint64(33, *cmd.SpliceTime.PTSTime)
	} else {
		w.PutBit(false)
		w.PutUint32(7, Reserved)
	}
	return buf, w.Flush()
}

func (cmd *TimeSignal) length() int {
	if cmd.timeSpecifiedFlag() {
		return (1 + 6 + 33) / 8
	}
	return 1
}

func (cmd *TimeSignal) table(prefix, indent string) string {
	s := prefix + "time_signal() {\n"
	s += prefix + indent + fmt.Sprintf("time_specified_flag: %v\n", cmd.timeSpecifiedFlag())
	if cmd.timeSpecifiedFlag() {
		s += prefix + indent + fmt.Sprintf("pts_time: %d ticks (%s)\n", *cmd.SpliceTime.PTSTime, TicksToDuration(*cmd.SpliceTime.PTSTime))
	}
	s += prefix + "}\n"
	return s
}
