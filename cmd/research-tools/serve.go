// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-tools/internal/export"
	"github.com/pdiddy/research-tools/internal/metrics"
	"github.com/pdiddy/research-tools/internal/patent"
	"github.com/pdiddy/research-tools/internal/search"
	"github.com/pdiddy/research-tools/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over HTTP",
	Long: `Serve exposes the literature, citation, Crossref, patent and export tools
as JSON endpoints under /v1/tools, with /healthz and Prometheus /metrics.
The Crossref routes are mounted only when a contact mailto is configured and
the patent routes only when PatSnap credentials are configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", "", "listen address (default from server.address)")
	_ = viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.With().Str("component", "serve").Logger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, metricsNamespace)

	kit := search.NewToolkit(cfg.Literature, logger, m)
	tools := server.Tools{
		Literature: kit.Aggregator,
		Semantic:   kit.Semantic,
		Wos:        kit.Wos,
		Citations:  kit.Citations,
		Exporter:   &export.Exporter{Dir: cfg.Server.ExportDir},
	}
	if cfg.Literature.Crossref.Mailto != "" {
		tools.Crossref = kit.Crossref
	} else {
		log.Warn().Msg("Crossref mailto not configured; crossref routes disabled")
	}
	if cfg.Patent.APIKey != "" && cfg.Patent.ClientSecret != "" {
		tools.Patents = patent.NewClient(cfg.Patent, logger, m)
	} else {
		log.Warn().Msg("PatSnap credentials not configured; patent routes disabled")
	}

	srv := server.NewServer(cfg.Server, tools, reg, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
