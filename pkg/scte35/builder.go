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

import "time"

// DefaultSegmentationTypeID is the segmentation_type_id applied to built
// segmentation_descriptors when the caller does not supply one.
const DefaultSegmentationTypeID = 0x10 // Program Start

// BuildOptions configures the optional segmentation_descriptor attached to a
// built splice_info_section.
type BuildOptions struct {
	SegmentationTypeID uint32
	UPIDType           uint32
	UPIDValue          []byte
}

// segmentationDescriptor builds the optional segmentation_descriptor for a
// BuildOptions, or nil if no UPID value was supplied.
func (o BuildOptions) segmentationDescriptor() SpliceDescriptor {
	if len(o.UPIDValue) == 0 {
		return nil
	}
	typeID := o.SegmentationTypeID
	if typeID == 0 {
		typeID = DefaultSegmentationTypeID
	}
	upidType := o.UPIDType
	if upidType == 0 {
		upidType = SegmentationUPIDTypeMID
	}
	return &SegmentationDescriptor{
		SegmentationTypeID: typeID,
		SegmentationUPIDs:  []SegmentationUPID{NewSegmentationUPID(upidType, o.UPIDValue)},
	}
}

func newSection(cmd SpliceCommand, opts *BuildOptions) *SpliceInfoSection {
	sis := &SpliceInfoSection{
		SAPType: 3, // unspecified
		Tier:    0xFFF,
		SpliceCommand: cmd,
	}
	if opts != nil {
		if d := opts.segmentationDescriptor(); d != nil {
			sis.SpliceDescriptors = SpliceDescriptors{d}
		}
	}
	return sis
}

// BuildTimeSignalImmediate constructs a time_signal() splice_info_section
// with no PTS time (an immediate signal).
func BuildTimeSignalImmediate(opts *BuildOptions) (*SpliceInfoSection, error) {
	return newSection(&TimeSignal{}, opts), nil
}

// BuildTimeSignalAdvanced constructs a time_signal() splice_info_section
// with an optional segmentation_descriptor.
func BuildTimeSignalAdvanced(ptsTime *uint64, opts *BuildOptions) (*SpliceInfoSection, error) {
	cmd := &TimeSignal{}
	if ptsTime != nil {
		cmd.SpliceTime.PTSTime = ptsTime
	}
	return newSection(cmd, opts), nil
}

// BuildSpliceInsertOut constructs an immediate splice_insert() signaling the
// start of a break of the given duration, with auto_return set.
func BuildSpliceInsertOut(eventID uint32, duration time.Duration, opts *BuildOptions) (*SpliceInfoSection, error) {
	cmd := &SpliceInsert{
		SpliceEventID:         eventID,
		OutOfNetworkIndicator: true,
		SpliceImmediateFlag:   true,
		Program:               &SpliceInsertProgram{},
		BreakDuration: &BreakDuration{
			AutoReturn: true,
			Duration:   DurationToTicks(duration),
		},
	}
	return newSection(cmd, opts), nil
}

// BuildSpliceInsertOutAdvanced constructs a splice_insert() signaling the
// start of a break at a specific PTS time.
func BuildSpliceInsertOutAdvanced(eventID uint32, ptsTime uint64, duration time.Duration, opts *BuildOptions) (*SpliceInfoSection, error) {
	cmd := &SpliceInsert{
		SpliceEventID:         eventID,
		OutOfNetworkIndicator: true,
		Program:               NewSpliceInsertProgram(ptsTime),
		BreakDuration: &BreakDuration{
			AutoReturn: true,
			Duration:   DurationToTicks(duration),
		},
	}
	return newSection(cmd, opts), nil
}

// BuildSpliceInsertIn constructs an immediate splice_insert() signaling the
// return to network content.
func BuildSpliceInsertIn(eventID uint32) (*SpliceInfoSection, error) {
	cmd := &SpliceInsert{
		SpliceEventID:         eventID,
		OutOfNetworkIndicator: false,
		SpliceImmediateFlag:   true,
		Program:               &SpliceInsertProgram{},
	}
	return newSection(cmd, nil), nil
}

// BuildSpliceInsertInWithPTS constructs a splice_insert() signaling the
// return to network content at a specific PTS time.
func BuildSpliceInsertInWithPTS(eventID uint32, ptsTime uint64) (*SpliceInfoSection, error) {
	cmd := &SpliceInsert{
		SpliceEventID:         eventID,
		OutOfNetworkIndicator: false,
		Program:               NewSpliceInsertProgram(ptsTime),
	}
	return newSection(cmd, nil), nil
}
