package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/vibeoracle/internal/app"
	httpapi "github.com/sawpanic/vibeoracle/internal/interfaces/http"
	applog "github.com/sawpanic/vibeoracle/internal/log"
)

const shutdownGrace = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sc := cfg.Server
	serverCfg := httpapi.ServerConfig{
		Host:           sc.Host,
		Port:           sc.Port,
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		IdleTimeout:    sc.IdleTimeout,
		RequestTimeout: sc.RequestTimeout,
		AllowedOrigins: sc.AllowedOrigins,
		RateLimitRPS:   sc.RateLimitRPS,
		RateLimitBurst: sc.RateLimitBurst,
	}
	if sc.AccessLog != "" {
		access, err := applog.Rotating(sc.AccessLog, cfg.Logging)
		if err != nil {
			return err
		}
		defer access.Close()
		serverCfg.AccessLog = access
	}

	server := httpapi.NewServer(serverCfg, httpapi.Deps{
		Sessions:  a.Sessions,
		Collector: a.Collector,
		Registry:  a.Registry,
		Metrics:   a.Metrics,
		Version:   version,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		a.Sessions.Run(gctx, sc.SweepInterval)
		return nil
	})
	if limiter := server.Limiter(); limiter != nil {
		g.Go(func() error {
			limiter.Run(gctx, sc.SweepInterval, sc.SessionIdleTTL)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
