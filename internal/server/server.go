// Package server wires the HTTP handler into a process: TLS selection,
// graceful shutdown, and signal handling.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options configures the listening server.
type Options struct {
	Addr            string
	Handler         http.Handler
	TLSCert         string
	TLSKey          string
	ShutdownTimeout time.Duration
	Log             *logrus.Logger
}

// Run starts an HTTP(S) server and blocks until ctx is cancelled or a
// SIGINT/SIGTERM arrives, then drains in-flight requests before returning.
func Run(ctx context.Context, opts Options) error {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: opts.Handler,
	}

	tlsEnabled := opts.TLSCert != "" && opts.TLSKey != ""
	if tlsEnabled {
		cert, err := tls.LoadX509KeyPair(opts.TLSCert, opts.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS keypair: %w", err)
		}
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": opts.Addr, "tls": tlsEnabled}).Info("http server listening")
		var err error
		if tlsEnabled {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("http server stopped")
	return nil
}

// Background returns a context cancelled on SIGINT/SIGTERM, for callers that
// need the signal-derived context ahead of Run (e.g. to close a DB handle).
func Background() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
