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

// Command pois runs the SCTE-35/ESAM CLI, including the `serve` subcommand
// that starts the placement opportunity information system HTTP server.
package main

import (
	"os"

	"github.com/techexlab/pois/cmd"
)

func main() {
	if err := cmd.SCTE35().Execute(); err != nil {
		os.Exit(1)
	}
}
