package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantgate/sharpeguard/internal/cache"
	"github.com/quantgate/sharpeguard/internal/httpapi"
)

// runMonitor serves the read-only monitoring surface until interrupted.
func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("monitor requires redis.addr to be configured")
	}

	store := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		time.Duration(cfg.Redis.TTLSeconds)*time.Second)

	server := httpapi.NewServer(httpapi.Config{
		Host:          cfg.Monitor.Host,
		Port:          cfg.Monitor.Port,
		RatePerSecond: cfg.Monitor.RatePerSecond,
		RateBurst:     cfg.Monitor.RateBurst,
	}, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("host", cfg.Monitor.Host).Int("port", cfg.Monitor.Port).Msg("starting monitor")
	return server.Start(ctx)
}
