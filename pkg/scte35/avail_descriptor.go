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

// AvailDescriptorTag is the splice_descriptor_tag for avail_descriptor().
const AvailDescriptorTag = 0x00

// AvailDescriptor is used to convey the identification of an avail.
type AvailDescriptor struct {
	XMLName         xml.Name `xml:"http://www.scte.org/schemas/35 AvailDescriptor" json:"-"`
	JSONType        uint32   `xml:"-" json:"type"`
	ProviderAvailID uint32   `xml:"providerAvailId,attr" json:"providerAvailId"`
}

// Tag returns the splice_descriptor_tag.
func (ad *AvailDescriptor) Tag() uint32 {
	ad.JSONType = AvailDescriptorTag
	return AvailDescriptorTag
}

func (ad *AvailDescriptor) decode(b []byte) error {
	r := iobit.NewReader(b)
	r.Skip(8)  // splice_descriptor_tag
	r.Skip(8)  // descriptor_length
	r.Skip(32) // identifier
	ad.ProviderAvailID = r.Uint32(32)
	if err := readerError(r); err != nil {
		return fmt.Errorf("avail_descriptor: %w", err)
	}
	return nil
}

func (ad *AvailDescriptor) encode() ([]byte, error) {
	buf := make([]byte, ad.length()+2)
	w := iobit.NewWriter(buf)
	w.PutUint32(8, AvailDescriptorTag)
	w.PutUint32(8, uint32(ad.length()))
	w.PutUint32(32, CUEIdentifier)
	w.PutUint32(32, ad.ProviderAvailID)
	return buf, w.Flush()
}

func (ad *AvailDescriptor) length() int {
	return (32 + 32) / 8
}

func (ad *AvailDescriptor) table(prefix, indent string) string {
	s := prefix + "avail_descriptor() {\n"
	s += prefix + indent + fmt.Sprintf("identifier: %s\n", CUEIASCII)
	s += prefix + indent + fmt.Sprintf("provider_avail_id: %d\n", ad.ProviderAvailID)
	s += prefix + "}\n"
	return s
}
