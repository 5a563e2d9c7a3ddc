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

// DTMFDescriptorTag is the splice_descriptor_tag for dtmf_descriptor().
const DTMFDescriptorTag = 0x01

// DTMFDescriptor provides an optional extension to the splice_insert()
// command that allows a legacy splice device to generate a DTMF sequence.
type DTMFDescriptor struct {
	XMLName   xml.Name `xml:"http://www.scte.org/schemas/35 DTMFDescriptor" json:"-"`
	JSONType  uint32   `xml:"-" json:"type"`
	Preroll   uint32   `xml:"preroll,attr" json:"preroll"`
	DTMFChars string   `xml:"chars,attr" json:"chars"`
}

// Tag returns the splice_descriptor_tag.
func (dd *DTMFDescriptor) Tag() uint32 {
	dd.JSONType = DTMFDescriptorTag
	return DTMFDescriptorTag
}

func (dd *DTMFDescriptor) decode(b []byte) error {
	r := iobit.NewReader(b)
	r.Skip(8)  // splice_descriptor_tag
	r.Skip(8)  // descriptor_length
	r.Skip(32) // identifier
	dd.Preroll = r.Uint32(8)
	dtmfCount := int(r.Uint32(3))
	r.Skip(5) // reserved
	dd.DTMFChars = r.String(dtmfCount)
	if err := readerError(r); err != nil {
		return fmt.Errorf("dtmf_descriptor: %w", err)
	}
	return nil
}

func (dd *DTMFDescriptor) encode() ([]byte, error) {
	buf := make([]byte, dd.length()+2)
	w := iobit.NewWriter(buf)
	w.PutUint32(8, DTMFDescriptorTag)
	w.PutUint32(8, uint32(dd.length()))
	w.PutUint32(32, CUEIdentifier)
	w.PutUint32(8, dd.Preroll)
	w.PutUint32(3, uint32(len(dd.DTMFChars)))
	w.PutUint32(5, Reserved)
	_, _ = w.Write([]byte(dd.DTMFChars))
	return buf, w.Flush()
}

func (dd *DTMFDescriptor) length() int {
	length := 32 // identifier
	length += 8  // preroll
	length += 3  // dtmf_count
	length += 5  // reserved
	length += len(dd.DTMFChars) * 8
	return length / 8
}

func (dd *DTMFDescriptor) table(prefix, indent string) string {
	s := prefix + "dtmf_descriptor() {\n"
	s += prefix + indent + fmt.Sprintf("identifier: %s\n", CUEIASCII)
	s += prefix + indent + fmt.Sprintf("preroll: %d\n", dd.Preroll)
	s += prefix + indent + fmt.Sprintf("chars: %s\n", dd.DTMFChars)
	s += prefix + "}\n"
	return s
}
