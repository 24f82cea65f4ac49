// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package quotautilization

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// Exporter serves collection cycles from whichever collector is current.
// Swap replaces it without interrupting scrapes that are in flight.
type Exporter struct {
	current atomic.Pointer[Collector]
}

func NewExporter(c *Collector) *Exporter {
	e := &Exporter{}
	e.current.Store(c)
	return e
}

// Swap installs c for all following scrapes and returns the previous collector.
func (e *Exporter) Swap(c *Collector) *Collector {
	return e.current.Swap(c)
}

func (e *Exporter) Collect(ctx context.Context) Result {
	return e.current.Load().Collect(ctx)
}

// StartQuotaUtilizationExporter serves the metrics endpoint until ctx is
// cancelled and then shuts the server down. A cancelled context is a clean
// exit and returns nil.
func StartQuotaUtilizationExporter(ctx context.Context, cfg QuotaUtilizationConfig, source Source) error {
	status := &Status{}
	handler := NewRouter(NewHandler(source, status, NewSelfRegistry(status)), cfg.MetricsPath)

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	return serve(ctx, listener, handler, cfg)
}

func serve(ctx context.Context, listener net.Listener, handler http.Handler, cfg QuotaUtilizationConfig) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	log.Info().
		Str("address", listener.Addr().String()).
		Str("metrics_path", cfg.MetricsPath).
		Str("radosgw_server", cfg.Host).
		Msg("serving")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("termination signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server did not shut down cleanly")
		_ = srv.Close()
	}
	return nil
}
