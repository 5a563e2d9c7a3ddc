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

package scte35

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTimeSignalSectionUnspecifiedLength hand-assembles a splice_info_section
// carrying a time_signal() with splice_command_length set to the 0xFFF
// "unspecified" sentinel, the way some real encoders emit it. It exists
// because no sample vector in the wild happens to use 0xFFF for a command
// that also carries descriptors, and that combination is exactly what
// regresses if the decoder ever again trusts the length field for
// positioning.
func buildTimeSignalSectionUnspecifiedLength(ptsTime uint64) []byte {
	const (
		sectionLength = 22
		tier          = 0xFFF
		cmdLength     = 0xFFF
	)

	b := make([]byte, 0, 25)
	b = append(b, spliceInfoSectionTableID)

	combined16 := uint32(1)<<15 | uint32(3)<<12 | uint32(sectionLength)
	b = append(b, byte(combined16>>8), byte(combined16))

	b = append(b, 0x00)             // protocol_version
	b = append(b, 0, 0, 0, 0, 0)    // encrypted_packet_flag, encryption_algorithm, pts_adjustment
	b = append(b, 0x00)             // cw_index

	combined32 := uint32(tier)<<20 | uint32(cmdLength)<<8 | uint32(TimeSignalType)
	b = append(b, byte(combined32>>24), byte(combined32>>16), byte(combined32>>8), byte(combined32))

	// time_specified_flag(1)=1, reserved(6)=0x3F, pts_time(33)
	combined40 := uint64(1)<<39 | uint64(0x3F)<<33 | (ptsTime & 0x1FFFFFFFF)
	b = append(b, byte(combined40>>32), byte(combined40>>24), byte(combined40>>16), byte(combined40>>8), byte(combined40))

	b = append(b, 0x00, 0x00) // descriptor_loop_length

	crc := calculateCRC32(b)
	b = append(b, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return b
}

// TestDecodeUnspecifiedSpliceCommandLength exercises the 0xFFF sentinel: the
// decoder must determine how many bits the command actually consumes by
// parsing it, not by trusting the advertised length, and must still find
// descriptor_loop_length immediately afterward.
func TestDecodeUnspecifiedSpliceCommandLength(t *testing.T) {
	const ptsTime = uint64(0x072bd0050)
	raw := buildTimeSignalSectionUnspecifiedLength(ptsTime)

	sis := &SpliceInfoSection{}
	require.NoError(t, sis.Decode(raw))

	ts, ok := sis.SpliceCommand.(*TimeSignal)
	require.True(t, ok)
	require.NotNil(t, ts.SpliceTime.PTSTime)
	assert.EqualValues(t, ptsTime, *ts.SpliceTime.PTSTime)
	assert.Empty(t, sis.SpliceDescriptors)

	reencoded, err := sis.Encode()
	require.NoError(t, err)

	roundTrip := &SpliceInfoSection{}
	require.NoError(t, roundTrip.Decode(reencoded))
	rtTS, ok := roundTrip.SpliceCommand.(*TimeSignal)
	require.True(t, ok)
	require.NotNil(t, rtTS.SpliceTime.PTSTime)
	assert.EqualValues(t, ptsTime, *rtTS.SpliceTime.PTSTime)
}
