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
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/bamiaux/iobit"
)

const spliceInfoSectionTableID = 0xFC

var sapTypeNames = map[uint32]string{
	0x00: "Type 1",
	0x01: "Type 2",
	0x02: "Type 3",
	0x03: "Unspecified",
}

// SpliceInfoSection is the top level splice_info_section() as defined in
// SCTE-35 section 9.2.
type SpliceInfoSection struct {
	XMLName           xml.Name          `xml:"http://www.scte.org/schemas/35 SpliceInfoSection" json:"-"`
	SAPType           uint32            `xml:"sapType,attr" json:"sapType"`
	Tier              uint32            `xml:"tier,attr" json:"tier"`
	PTSAdjustment     uint64            `xml:"ptsAdjustment,attr,omitempty" json:"ptsAdjustment,omitempty"`
	SpliceCommand     SpliceCommand     `xml:"-" json:"spliceCommand"`
	SpliceDescriptors SpliceDescriptors `xml:"-" json:"spliceDescriptors,omitempty"`
	EncryptedPacket   *EncryptedPacket  `xml:"-" json:"encryptedPacket,omitempty"`
	CRC32             uint32            `xml:"-" json:"-"`
}

// Decode parses a raw splice_info_section byte slice into sis. On error the
// receiver holds the partial result decoded up to the point of failure.
func (sis *SpliceInfoSection) Decode(b []byte) error {
	if err := sis.decode(b); err != nil {
		return fmt.Errorf("splice_info_section: %w", err)
	}
	return nil
}

func (sis *SpliceInfoSection) decode(b []byte) error {
	if len(b) < 14 {
		return ErrBufferOverflow
	}
	if !verifyCRC32(b) {
		return ErrCRC32Invalid
	}
	r := iobit.NewReader(b)

	if id := r.Uint32(8); id != spliceInfoSectionTableID {
		return ErrInvalidTableID
	}
	r.Skip(1) // section_syntax_indicator
	r.Skip(1) // private_indicator
	sis.SAPType = r.Uint32(2)
	r.Skip(12) // section_length
	r.Skip(8)  // protocol_version
	encryptedPacketFlag := r.Bit()
	encryptionAlgorithm := r.Uint32(6)
	sis.PTSAdjustment = r.Uint64(33)
	cwIndex := r.Uint32(8)
	sis.Tier = r.Uint32(12)
	spliceCommandLength := r.Uint32(12)
	spliceCommandType := r.Uint32(8)

	if encryptedPacketFlag {
		sis.EncryptedPacket = &EncryptedPacket{
			EncryptionAlgorithm: encryptionAlgorithm,
			CWIndex:             cwIndex,
		}
	}

	cmd := NewSpliceCommand(spliceCommandType)
	// splice_command_length is advisory only (0xFFF means "unspecified"); the
	// command is decoded directly off the section reader so it consumes
	// exactly the bits its own structure defines, leaving the reader
	// correctly positioned for descriptor_loop_length regardless of what
	// the length field claimed.
	if pc, ok := cmd.(*PrivateCommand); ok && spliceCommandLength != 0xFFF {
		pc.declaredLength = spliceCommandLength
	}
	if err := cmd.decode(&r); err != nil {
		return err
	}
	sis.SpliceCommand = cmd

	descriptorLoopLength := r.Uint32(16) & 0x03FF
	descriptors, err := decodeSpliceDescriptors(r.Bytes(int(descriptorLoopLength)))
	if err != nil {
		return err
	}
	sis.SpliceDescriptors = descriptors

	if encryptedPacketFlag {
		r.Skip(int(r.LeftBits()) - 32)
	}

	sis.CRC32 = r.Uint32(32)

	return readerError(r)
}

// Encode serializes sis back into a splice_info_section byte slice,
// recomputing the CRC-32 trailer.
func (sis *SpliceInfoSection) Encode() ([]byte, error) {
	cmdBytes, err := sis.SpliceCommand.encode()
	if err != nil {
		return nil, err
	}
	descBytes, err := sis.SpliceDescriptors.encode()
	if err != nil {
		return nil, err
	}

	// section_length covers everything after itself, up to and including CRC32.
	sectionLength := 11 + len(cmdBytes) + 2 + len(descBytes) + 4
	buf := make([]byte, 3+sectionLength)
	w := iobit.NewWriter(buf)

	w.PutUint32(8, spliceInfoSectionTableID)
	w.PutBit(true)  // section_syntax_indicator
	w.PutBit(false) // private_indicator
	w.PutUint32(2, sis.SAPType)
	w.PutUint32(12, uint32(sectionLength))
	w.PutUint32(8, 0) // protocol_version
	w.PutBit(sis.EncryptedPacket != nil)
	if sis.EncryptedPacket != nil {
		w.PutUint32(6, sis.EncryptedPacket.EncryptionAlgorithm)
	} else {
		w.PutUint32(6, 0)
	}
	w.PutUint64(33, sis.PTSAdjustment)
	if sis.EncryptedPacket != nil {
		w.PutUint32(8, sis.EncryptedPacket.CWIndex)
	} else {
		w.PutUint32(8, 0)
	}
	w.PutUint32(12, sis.Tier)
	w.PutUint32(12, uint32(len(cmdBytes)))
	w.PutUint32(8, sis.SpliceCommand.Type())
	_, _ = w.Write(cmdBytes)
	w.PutUint32(16, uint32(len(descBytes))&0x03FF)
	_, _ = w.Write(descBytes)

	if err := w.Flush(); err != nil {
		return nil, err
	}

	used := w.Index() / 8
	crc := calculateCRC32(buf[:used])
	out := make([]byte, used+4)
	copy(out, buf[:used])
	out[used] = byte(crc >> 24)
	out[used+1] = byte(crc >> 16)
	out[used+2] = byte(crc >> 8)
	out[used+3] = byte(crc)
	sis.CRC32 = crc
	return out, nil
}

// Base64 returns sis encoded as a base64 splice signal.
func (sis *SpliceInfoSection) Base64() (string, error) {
	b, err := sis.Encode()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Hex returns sis encoded as a 0x-prefixed hexadecimal splice signal.
func (sis *SpliceInfoSection) Hex() (string, error) {
	b, err := sis.Encode()
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Duration returns the implied break duration of the splice command, if any.
func (sis *SpliceInfoSection) Duration() time.Duration {
	if cmd, ok := sis.SpliceCommand.(*SpliceInsert); ok && cmd.BreakDuration != nil {
		return TicksToDuration(cmd.BreakDuration.Duration)
	}
	return 0
}

// EncryptedPacketFlag reports whether the section carries an encrypted payload.
func (sis *SpliceInfoSection) EncryptedPacketFlag() bool {
	return sis.EncryptedPacket != nil
}

// SAPTypeName returns the human readable name for the SAPType field.
func (sis *SpliceInfoSection) SAPTypeName() string {
	if name, ok := sapTypeNames[sis.SAPType]; ok {
		return name
	}
	return "Unknown"
}

// Table returns a tabular, human readable description of sis.
func (sis *SpliceInfoSection) Table() string {
	prefix, indent := "", "    "
	s := prefix + "splice_info_section() {\n"
	s += indent + "sap_type: " + sis.SAPTypeName() + "\n"
	s += indent + fmt.Sprintf("tier: %d\n", sis.Tier)
	s += indent + fmt.Sprintf("pts_adjustment: %d\n", sis.PTSAdjustment)
	if sis.SpliceCommand != nil {
		s += sis.SpliceCommand.table(indent, indent)
	}
	for _, d := range sis.SpliceDescriptors {
		s += d.table(indent, indent)
	}
	s += prefix + "}\n"
	return s
}
