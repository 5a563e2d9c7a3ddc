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

// PrivateDescriptor carries a splice_descriptor() not otherwise recognized,
// either because its identifier is not CUEIdentifier or its tag is unknown.
type PrivateDescriptor struct {
	XMLName      xml.Name `xml:"http://www.scte.org/schemas/35 PrivateDescriptor" json:"-"`
	JSONType     uint32   `xml:"-" json:"type"`
	PrivateTag   uint32   `xml:"tag,attr" json:"tag"`
	Identifier   uint32   `xml:"identifier,attr" json:"identifier"`
	PrivateBytes Bytes    `xml:"privateBytes,attr" json:"privateBytes"`
}

// Tag returns the splice_descriptor_tag.
func (pd *PrivateDescriptor) Tag() uint32 {
	pd.JSONType = pd.PrivateTag
	return pd.PrivateTag
}

// IdentifierString returns the identifier as an ASCII string.
func (pd *PrivateDescriptor) IdentifierString() string {
	b := make([]byte, 4)
	b[0] = byte(pd.Identifier >> 24)
	b[1] = byte(pd.Identifier >> 16)
	b[2] = byte(pd.Identifier >> 8)
	b[3] = byte(pd.Identifier)
	return string(b)
}

func (pd *PrivateDescriptor) decode(b []byte) error {
	r := iobit.NewReader(b)
	pd.PrivateTag = r.Uint32(8)
	length := r.Uint32(8)
	pd.Identifier = r.Uint32(32)
	pd.PrivateBytes = r.Bytes(int(length) - 4)
	if err := readerError(r); err != nil {
		return fmt.Errorf("private_descriptor: %w", err)
	}
	return nil
}

func (pd *PrivateDescriptor) encode() ([]byte, error) {
	buf := make([]byte, pd.length()+2)
	w := iobit.NewWriter(buf)
	w.PutUint32(8, pd.PrivateTag)
	w.PutUint32(8, uint32(pd.length()))
	w.PutUint32(32, pd.Identifier)
	_, _ = w.Write(pd.PrivateBytes)
	return buf, w.Flush()
}

func (pd *PrivateDescriptor) length() int {
	return 4 + len(pd.PrivateBytes)
}

func (pd *PrivateDescriptor) table(prefix, indent string) string {
	s := prefix + "private_descriptor() {\n"
	s += prefix + indent + fmt.Sprintf("identifier: %s\n", pd.IdentifierString())
	s += prefix + indent + fmt.Sprintf("private_bytes: %#x\n", []byte(pd.PrivateBytes))
	s += prefix + "}\n"
	return s
}
