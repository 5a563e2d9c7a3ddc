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

// SpliceScheduleType is the splice_command_type for splice_schedule().
const SpliceScheduleType = 0x04

// SpliceSchedule is used to modify the previously sent schedule of splice
// events.
type SpliceSchedule struct {
	XMLName  xml.Name `xml:"http://www.scte.org/schemas/35 SpliceSchedule" json:"-"`
	JSONType uint32   `xml:"-" json:"type"`
	Events   []SpliceScheduleEvent
}

// Type returns the splice_command_type.
func (cmd *SpliceSchedule) Type() uint32 {
	cmd.JSONType = SpliceScheduleType
	return SpliceScheduleType
}

func (cmd *SpliceSchedule) decode(r *iobit.Reader) error {
	eventCount := int(r.Uint32(8))
	cmd.Events = make([]SpliceScheduleEvent, eventCount)
	for i := 0; i < eventCount; i++ {
		e := SpliceScheduleEvent{}
		e.SpliceEventID = r.Uint32(32)
		e.SpliceEventCancelIndicator = r.Bit()
		r.Skip(7) // reserved
		if !e.SpliceEventCancelIndicator {
			e.OutOfNetworkIndicator = r.Bit()
			programSpliceFlag := r.Bit()
			durationFlag := r.Bit()
			r.Skip(5) // reserved
			if programSpliceFlag {
				sec := r.Uint32(32)
				t := NewUTCSpliceTime(sec)
				e.Program = &SpliceScheduleProgram{UTCSpliceTime: t}
			} else {
				componentCount := int(r.Uint32(8))
				e.Components = make([]SpliceScheduleComponent, componentCount)
				for j := 0; j < componentCount; j++ {
					c := SpliceScheduleComponent{}
					c.Tag = r.Uint32(8)
					c.UTCSpliceTime = NewUTCSpliceTime(r.Uint32(32))
					e.Components[j] = c
				}
			}
			if durationFlag {
				e.BreakDuration = &BreakDuration{}
				e.BreakDuration.AutoReturn = r.Bit()
				r.Skip(6) // reserved
				e.BreakDuration.Duration = r.Uint64(33)
			}
		}
		e.UniqueProgramID = r.Uint32(16)
		e.AvailNum = r.Uint32(8)
		e.AvailsExpected = r.Uint32(8)
		cmd.Events[i] = e
	}
	if err := readerOverflowError(r); err != nil {
		return fmt.Errorf("splice_schedule: %w", err)
	}
	return nil
}

func (cmd *SpliceSchedule) encode() ([]byte, error) {
	buf := make([]byte, cmd.length())
	w := iobit.NewWriter(buf)
	w.PutUint32(8, uint32(len(cmd.Events)))
	for _, e := range cmd.Events {
		w.PutUint32(32, e.SpliceEventID)
		w.PutBit(e.SpliceEventCancelIndicator)
		w.PutUint32(7, Reserved)
		if !e.SpliceEventCancelIndicator {
			w.PutBit(e.OutOfNetworkIndicator)
			w.PutBit(e.programSpliceFlag())
			w.PutBit(e.durationFlag())
			w.PutUint32(5, Reserved)
			if e.programSpliceFlag() {
				w.PutUint32(32, e.Program.UTCSpliceTime.GPSSeconds())
			} else {
				w.PutUint32(8, uint32(len(e.Components)))
				for _, c := range e.Components {
					w.PutUint32(8, c.Tag)
					w.PutUint32(32, c.UTCSpliceTime.GPSSeconds())
				}
			}
			if e.durationFlag() {
				w.PutBit(e.BreakDuration.AutoReturn)
				w.PutUint32(6, Reserved)
				w.PutUint64(33, e.BreakDuration.Duration)
			}
		}
		w.PutUint32(16, e.UniqueProgramID)
		w.PutUint32(8, e.AvailNum)
		w.PutUint32(8, e.AvailsExpected)
	}
	return buf, w.Flush()
}

func (cmd *SpliceSchedule) length() int {
	length := 8 // splice_count
	for _, e := range cmd.Events {
		length += 32 // splice_event_id
		length++     // splice_event_cancel_indicator
		length += 7  // reserved
		if !e.SpliceEventCancelIndicator {
			length++    // out_of_network_indicator
			length++    // program_splice_flag
			length++    // duration_flag
			length += 5 // reserved
			if e.programSpliceFlag() {
				length += 32 // utc_splice_time
			} else {
				length += 8 // component_count
				for range e.Components {
					length += 8  // component_tag
					length += 32 // utc_splice_time
				}
			}
			if e.durationFlag() {
				length++     // auto_return
				length += 6  // reserved
				length += 33 // duration
			}
			length += 16 // unique_program_id
			length += 8  // avail_num
			length += 8  // avails_expected
		}
	}
	return length / 8
}

func (cmd *SpliceSchedule) table(prefix, indent string) string {
	s := prefix + "splice_schedule() {\n"
	s += prefix + indent + fmt.Sprintf("splice_count: %d\n", len(cmd.Events))
	s += prefix + "}\n"
	return s
}

// SpliceScheduleEvent describes a single event within a splice_schedule().
type SpliceScheduleEvent struct {
	Program                    *SpliceScheduleProgram
	Components                 []SpliceScheduleComponent
	BreakDuration              *BreakDuration
	SpliceEventID              uint32
	SpliceEventCancelIndicator bool
	OutOfNetworkIndicator      bool
	UniqueProgramID            uint32
	AvailNum                   uint32
	AvailsExpected             uint32
}

func (e *SpliceScheduleEvent) programSpliceFlag() bool {
	return e.Program != nil
}

func (e *SpliceScheduleEvent) durationFlag() bool {
	return e.BreakDuration != nil
}

// SpliceScheduleProgram contains the Splice Point in Program Splice Mode.
type SpliceScheduleProgram struct {
	UTCSpliceTime UTCSpliceTime
}

// SpliceScheduleComponent describes a single component within a
// splice_schedule() event.
type SpliceScheduleComponent struct {
	Tag           uint32
	UTCSpliceTime UTCSpliceTime
}
