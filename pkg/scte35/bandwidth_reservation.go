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

	"github.com/bamiaux/iobit"
)

// BandwidthReservationType is the splice_command_type for
// bandwidth_reservation().
const BandwidthReservationType = 0x07

// BandwidthReservation is used to reserve bandwidth for a future splice_info_section.
type BandwidthReservation struct {
	XMLName  xml.Name `xml:"http://www.scte.org/schemas/35 BandwidthReservation" json:"-"`
	JSONType uint32   `xml:"-" json:"type"`
}

// Type returns the splice_command_type.
func (cmd *BandwidthReservation) Type() uint32 {
	cmd.JSONType = BandwidthReservationType
	return BandwidthReservationType
}

func (cmd *BandwidthReservation) decode(r *iobit.Reader) error {
	return nil
}

func (cmd *BandwidthReservation) encode() ([]byte, error) {
	return []byte{}, nil
}

func (cmd *BandwidthReservation) length() int {
	return 0
}

func (cmd *BandwidthReservation) table(prefix, indent string) string {
	return prefix + "bandwidth_reservation() {\n" + prefix + "}\n"
}
