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

// SpliceTime carries the splice_time() structure, which may convey either a
// specific PTS time or no time at all (immediate splice).
type SpliceTime struct {
	PTSTime *uint64 `xml:"ptsTime,attr" json:"ptsTime,omitempty"`
}

// timeSpecifiedFlag returns the time_specified_flag.
func (t *SpliceTime) timeSpecifiedFlag() bool {
	return t != nil && t.PTSTime != nil
}
