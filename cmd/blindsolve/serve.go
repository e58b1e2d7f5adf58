package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rook/blindsolver/internal/bridge"
	"github.com/rook/blindsolver/internal/bridge/inspect"
	"github.com/rook/blindsolver/internal/solver/registry"
	"github.com/rook/blindsolver/internal/solver/tuning"
)

// ServeCmd runs the newline-JSON TCP bridge alongside the /inspect
// websocket, loading engine weights from an optional HCL file.
type ServeCmd struct {
	Addr        string `kong:"default=':7777',help='TCP bridge listen address'"`
	InspectAddr string `kong:"default=':7778',help='HTTP address serving the /inspect websocket'"`
	Config      string `kong:"help='Path to an HCL tuning file (optional)'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	logger := newLogger(c.Debug)

	loaded, err := tuning.Load(c.Config)
	if err != nil {
		return err
	}
	decisionCfg, _, _ := tuning.Resolve(loaded)

	hub := inspect.NewHub(nil)
	httpServer := &http.Server{Addr: c.InspectAddr, Handler: hub}
	go func() {
		logger.Info().Str("addr", c.InspectAddr).Msg("inspect websocket listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("inspect server failed")
		}
	}()

	srv := bridge.New(
		bridge.WithLogger(logger),
		bridge.WithRegistry(registry.New()),
		bridge.WithDecisionConfig(decisionCfg),
		bridge.WithInspector(hub),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
		httpServer.Shutdown(shutdownCtx)
		cancel()
	}()

	return srv.Start(c.Addr)
}

func newLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
