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
	"github.com/bamiaux/iobit"
)

const (
	// CUEIdentifier is the identifier value for splice_descriptor()s defined
	// by SCTE-35 ("CUEI" as a big-endian uint32).
	CUEIdentifier = 0x43554549
	// CUEIASCII is the ASCII representation of CUEIdentifier.
	CUEIASCII = "CUEI"
)

// SpliceDescriptor describes the behavior of splice_info_section.splice_descriptor().
type SpliceDescriptor interface {
	// Tag returns the splice_descriptor_tag.
	Tag() uint32
	// decode updates this splice_descriptor from binary.
	decode(b []byte) error
	// encode this splice_descriptor to binary.
	encode() ([]byte, error)
	// length returns the descriptor_length.
	length() int
	// table returns the tabular description of this splice_descriptor.
	table(prefix, indent string) string
}

// SpliceDescriptors is a collection of SpliceDescriptor.
type SpliceDescriptors []SpliceDescriptor

// encode serializes every descriptor in order, concatenating the results.
func (sd SpliceDescriptors) encode() ([]byte, error) {
	var out []byte
	for _, d := range sd {
		b, err := d.encode()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// NewSpliceDescriptor constructs a new SpliceDescriptor for the given
// splice_descriptor_tag and identifier.
func NewSpliceDescriptor(identifier uint32, tag uint32) SpliceDescriptor {
	if identifier == CUEIdentifier {
		switch tag {
		case AvailDescriptorTag:
			return &AvailDescriptor{}
		case DTMFDescriptorTag:
			return &DTMFDescriptor{}
		case SegmentationDescriptorTag:
			return &SegmentationDescriptor{}
		}
	}
	return &PrivateDescriptor{Identifier: identifier, PrivateTag: tag}
}

// decodeSpliceDescriptors decodes a splice_descriptor_loop from binary.
func decodeSpliceDescriptors(b []byte) (SpliceDescriptors, error) {
	var descriptors SpliceDescriptors
	r := iobit.NewReader(b)
	for r.LeftBits() > 0 {
		peek := r.Peek()
		tag := peek.Uint32(8)
		length := int(peek.Uint32(8))
		identifier := peek.Uint32(32)

		d := NewSpliceDescriptor(identifier, tag)
		if err := d.decode(r.Bytes(2 + length)); err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	if err := readerError(r); err != nil {
		return nil, err
	}
	return descriptors, nil
}
