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

import "github.com/bamiaux/iobit"

// SpliceCommand describes the behavior of splice_info_section.splice_command().
type SpliceCommand interface {
	// Type returns the splice_command_type.
	Type() uint32
	// decode reads this splice command directly off the section reader,
	// consuming exactly the bits its structure defines.
	decode(r *iobit.Reader) error
	// encode this splice command to binary.
	encode() ([]byte, error)
	// length returns the splice_command_length.
	length() int
	// table returns the tabular description of this splice command.
	table(prefix, indent string) string
}

// NewSpliceCommand constructs a new SpliceCommand for the given
// splice_command_type.
func NewSpliceCommand(spliceCommandType uint32) SpliceCommand {
	switch spliceCommandType {
	case SpliceNullType:
		return &SpliceNull{}
	case SpliceScheduleType:
		return &SpliceSchedule{}
	case SpliceInsertType:
		return &SpliceInsert{}
	case TimeSignalType:
		return &TimeSignal{}
	case BandwidthReservationType:
		return &BandwidthReservation{}
	default:
		return &PrivateCommand{}
	}
}
