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

package scte35_test

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techexlab/pois/pkg/scte35"
)

func TestDecodeBase64(t *testing.T) {
	scte35.Logger.SetOutput(os.Stderr)
	defer scte35.Logger.SetOutput(io.Discard)

	cases := map[string]struct {
		binary string
		err    error
		check  func(t *testing.T, sis *scte35.SpliceInfoSection)
	}{
		"Sample 14.1 time_signal - Placement Opportunity Start": {
			binary: "/DA0AAAAAAAA///wBQb+cr0AUAAeAhxDVUVJSAAAjn/PAAGlmbAICAAAAAAsoKGKNAIAmsnRfg==",
			check: func(t *testing.T, sis *scte35.SpliceInfoSection) {
				ts, ok := sis.SpliceCommand.(*scte35.TimeSignal)
				require.True(t, ok)
				require.NotNil(t, ts.SpliceTime.PTSTime)
				assert.EqualValues(t, 0x072bd0050, *ts.SpliceTime.PTSTime)
				require.Len(t, sis.SpliceDescriptors, 1)
				sd, ok := sis.SpliceDescriptors[0].(*scte35.SegmentationDescriptor)
				require.True(t, ok)
				assert.EqualValues(t, 0x4800008e, sd.SegmentationEventID)
				assert.Equal(t, scte35.SegmentationTypeProviderPOStart, sd.SegmentationTypeID)
			},
		},
		"Sample 14.2 splice_insert": {
			binary: "/DAvAAAAAAAA///wFAVIAACPf+/+c2nALv4AUsz1AAAAAAAKAAhDVUVJAAABNWLbowo=",
			check: func(t *testing.T, sis *scte35.SpliceInfoSection) {
				si, ok := sis.SpliceCommand.(*scte35.SpliceInsert)
				require.True(t, ok)
				assert.EqualValues(t, 0x4800008f, si.SpliceEventID)
				assert.True(t, si.OutOfNetworkIndicator)
				require.NotNil(t, si.BreakDuration)
				assert.True(t, si.BreakDuration.AutoReturn)
				require.Len(t, sis.SpliceDescriptors, 1)
				ad, ok := sis.SpliceDescriptors[0].(*scte35.AvailDescriptor)
				require.True(t, ok)
				assert.EqualValues(t, 0x00000135, ad.ProviderAvailID)
			},
		},
		"Splice Null - Heartbeat": {
			binary: "/DARAAAAAAAAAP/wAAAAAHpPv/8=",
			check: func(t *testing.T, sis *scte35.SpliceInfoSection) {
				_, ok := sis.SpliceCommand.(*scte35.SpliceNull)
				assert.True(t, ok)
			},
		},
		"Invalid Base64 Encoding": {
			binary: "/DBaf%^",
			err:    scte35.ErrUnsupportedEncoding,
		},
		"Invalid CRC_32": {
			binary: "/DA4AAAAAAAAAP/wFAUABDEAf+//mWEhzP4Azf5gAQAAAAATAhFDVUVJAAAAAX+/AQIwNAEAAKeYO3Q=",
			err:    fmt.Errorf("splice_info_section: %w", scte35.ErrCRC32Invalid),
		},
	}

	for k, c := range cases {
		t.Run(k, func(t *testing.T) {
			sis, err := scte35.DecodeBase64(c.binary)
			if c.err != nil {
				require.Equal(t, c.err.Error(), err.Error())
				return
			}
			require.NoError(t, err)
			c.check(t, sis)

			reencoded, err := sis.Base64()
			require.NoError(t, err)
			assert.Equal(t, c.binary, reencoded)
		})
	}
}

func TestDecodeHex(t *testing.T) {
	sis, err := scte35.DecodeHex("0xFC3034000000000000FFFFF00506FE72BD0050001E021C435545494800008E7FCF0001A599B00808000000002CA0A18A3402009AC9D17E")
	require.NoError(t, err)
	ts, ok := sis.SpliceCommand.(*scte35.TimeSignal)
	require.True(t, ok)
	require.NotNil(t, ts.SpliceTime.PTSTime)
	assert.EqualValues(t, 0x072bd0050, *ts.SpliceTime.PTSTime)

	sis2, err := scte35.DecodeHex("FC302F000000000000FFFFF014054800008F7FEFFE7369C02EFE0052CCF500000000000A0008435545490000013562DBA30A")
	require.NoError(t, err)
	si, ok := sis2.SpliceCommand.(*scte35.SpliceInsert)
	require.True(t, ok)
	assert.EqualValues(t, 0x4800008f, si.SpliceEventID)
}

func TestTicksToDuration(t *testing.T) {
	min := 29 * scte35.TicksPerSecond
	max := 61 * scte35.TicksPerSecond
	for i := min; i < max; i++ {
		d := scte35.TicksToDuration(uint64(i))
		require.Equal(t, i, int(scte35.DurationToTicks(d)))
	}
}

func TestTable(t *testing.T) {
	sis, err := scte35.DecodeBase64("/DARAAAAAAAAAP/wAAAAAHpPv/8=")
	require.NoError(t, err)
	out := sis.Table()
	assert.Contains(t, out, "splice_info_section()")
	assert.Contains(t, out, "splice_null()")
}
