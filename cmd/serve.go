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
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/techexlab/pois/internal/auth"
	"github.com/techexlab/pois/internal/config"
	"github.com/techexlab/pois/internal/eventlog"
	"github.com/techexlab/pois/internal/httpapi"
	"github.com/techexlab/pois/internal/pipeline"
	"github.com/techexlab/pois/internal/server"
	"github.com/techexlab/pois/internal/store"
)

// serveCommand returns the command for `scte35 serve`, the POIS ESAM
// terminator HTTP server.
func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the placement opportunity information system HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg := config.Load()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})

	st, err := store.Open(cfg.DB, cfg.DBPoolSize)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	events := eventlog.New(st.DB(), cfg.StoreRawPayloads)
	authSvc := auth.NewService(st.DB(), cfg.JWTSecret)

	p := pipeline.New(st, st, events, pipeline.Config{
		AcquisitionPointIdentity:  cfg.AcquisitionPointIdentity,
		DefaultSegmentationTypeID: cfg.DefaultSegmentationTypeID,
	}, log)

	metrics := httpapi.NewMetrics(prometheus.DefaultRegisterer)
	_, handler := httpapi.New(p, st, events, authSvc, metrics, log, cfg.AdminToken, cfg.RequestDeadline)

	return server.Run(ctx, server.Options{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
		TLSCert: cfg.TLSCert,
		TLSKey:  cfg.TLSKey,
		Log:     log,
	})
}
