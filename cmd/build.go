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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or   implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/techexlab/pois/pkg/scte35"
)

// buildCommand returns the command for `scte35 build`.
func buildCommand() *cobra.Command {
	var kind string
	var eventID uint32
	var durationSeconds float64

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a splice_info_section signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sis *scte35.SpliceInfoSection
			var err error

			switch kind {
			case "time_signal":
				sis, err = scte35.BuildTimeSignalImmediate(nil)
			case "splice_insert_out":
				sis, err = scte35.BuildSpliceInsertOut(eventID, time.Duration(durationSeconds*float64(time.Second)), nil)
			case "splice_insert_in":
				sis, err = scte35.BuildSpliceInsertIn(eventID)
			default:
				return fmt.Errorf("unknown build kind %q", kind)
			}
			if err != nil {
				return err
			}

			b64, err := sis.Base64()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\n", b64)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "time_signal", "signal kind: time_signal, splice_insert_out, splice_insert_in")
	cmd.Flags().Uint32Var(&eventID, "event-id", 1, "splice_event_id")
	cmd.Flags().Float64Var(&durationSeconds, "duration", 30, "break duration in seconds (splice_insert_out only)")
	return cmd
}
