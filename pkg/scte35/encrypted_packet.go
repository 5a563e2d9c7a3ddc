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

const (
	// EncryptionAlgorithmNone means the splice_info_section is not encrypted.
	EncryptionAlgorithmNone = 0x00
	// EncryptionAlgorithmDESECB is DES - ECB mode.
	EncryptionAlgorithmDESECB = 0x01
	// EncryptionAlgorithmDESCBC is DES - CBC mode.
	EncryptionAlgorithmDESCBC = 0x02
	// EncryptionAlgorithmTripleDES is Triple DES EDE3 - ECB mode.
	EncryptionAlgorithmTripleDES = 0x03
)

var encryptionAlgorithmNames = map[uint32]string{
	EncryptionAlgorithmNone:      "No encryption",
	EncryptionAlgorithmDESECB:    "DES - ECB Mode",
	EncryptionAlgorithmDESCBC:    "DES - CBC Mode",
	EncryptionAlgorithmTripleDES: "Triple DES EDE3 - ECB Mode",
}

// EncryptedPacket carries the encryption fields of splice_info_section() when
// encrypted_packet_flag is set.
type EncryptedPacket struct {
	EncryptionAlgorithm uint32 `xml:"encryptionAlgorithm,attr" json:"encryptionAlgorithm"`
	CWIndex             uint32 `xml:"cwIndex,attr" json:"cwIndex"`
}

// EncryptionAlgorithmName returns the human readable name for the
// encryption_algorithm field.
func (ep *EncryptedPacket) EncryptionAlgorithmName() string {
	if name, ok := encryptionAlgorithmNames[ep.EncryptionAlgorithm]; ok {
		return name
	}
	return "User private"
}
