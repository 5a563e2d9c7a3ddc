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

// SpliceNullType is the splice_command_type for splice_null().
const SpliceNullType = 0x00

// SpliceNull carries no command, and can be used as a "heartbeat" to
// indicate that the splice stream is still being delivered.
type SpliceNull struct {
	XMLName  xml.Name `xml:"http://www.scte.org/schemas/35 SpliceNull" json:"-"`
	JSONType uint32   `xml:"-" json:"type"`
}

// Type returns the splice_command_type.
func (cmd *SpliceNull) Type() uint32 {
	cmd.JSONType = SpliceNullType
	return SpliceNullType
}

func (cmd *SpliceNull) decode(r *iobit.Reader) error {
	return nil
}

func (cmd *SpliceNull) encode() ([]byte, error) {
	return []byte{}, nil
}

func (cmd *SpliceNull) length() int {
	return 0
}

func (cmd *SpliceNull) table(prefix, indent string) string {
	return prefix + "splice_null() {\n" + prefix + "}\n"
}
