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

// PrivateCommandType is the splice_command_type for private_command().
const PrivateCommandType = 0xFF

// PrivateCommand carries user-defined data not described by SCTE-35.
type PrivateCommand struct {
	XMLName      xml.Name `xml:"http://www.scte.org/schemas/35 PrivateCommand" json:"-"`
	JSONType     uint32   `xml:"-" json:"type"`
	Identifier   uint32   `xml:"identifier,attr" json:"identifier"`
	PrivateBytes Bytes    `xml:"privateBytes,attr" json:"privateBytes"`

	// declaredLength is the section's splice_command_length in bytes, set by
	// the caller before decode when the length is known. private_command's
	// body has no self-describing terminator, so when the length is
	// unspecified (0xFFF) no private bytes beyond the identifier can be
	// recovered.
	declaredLength uint32
}

// Type returns the splice_command_type.
func (cmd *PrivateCommand) Type() uint32 {
	cmd.JSONType = PrivateCommandType
	return PrivateCommandType
}

// IdentifierString returns the identifier as an ASCII string.
func (cmd *PrivateCommand) IdentifierString() string {
	b := make([]byte, 4)
	b[0] = byte(cmd.Identifier >> 24)
	b[1] = byte(cmd.Identifier >> 16)
	b[2] = byte(cmd.Identifier >> 8)
	b[3] = byte(cmd.Identifier)
	return string(b)
}

func (cmd *PrivateCommand) decode(r *iobit.Reader) error {
	cmd.Identifier = r.Uint32(32)
	n := 0
	if cmd.declaredLength > 4 {
		n = int(cmd.declaredLength) - 4
	}
	cmd.PrivateBytes = r.Bytes(n)
	if err := readerOverflowError(r); err != nil {
		return fmt.Errorf("private_command: %w", err)
	}
	return nil
}

func (cmd *PrivateCommand) encode() ([]byte, error) {
	buf := make([]byte, cmd.length())
	w := iobit.NewWriter(buf)
	w.PutUint32(32, cmd.Identifier)
	_, _ = w.Write(cmd.PrivateBytes)
	return buf, w.Flush()
}

func (cmd *PrivateCommand) length() int {
	return 4 + len(cmd.PrivateBytes)
}

func (cmd *PrivateCommand) table(prefix, indent string) string {
	s := prefix + "private_command() {\n"
	s += prefix + indent + fmt.Sprintf("identifier: %s\n", cmd.IdentifierString())
	s += prefix + indent + fmt.Sprintf("private_bytes: %#x\n", []byte(cmd.PrivateBytes))
	s += prefix + "}\n"
	return s
}
