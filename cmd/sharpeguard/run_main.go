package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantgate/sharpeguard/internal/artifacts"
	"github.com/quantgate/sharpeguard/internal/cache"
	"github.com/quantgate/sharpeguard/internal/config"
	"github.com/quantgate/sharpeguard/internal/data"
	"github.com/quantgate/sharpeguard/internal/metrics"
	"github.com/quantgate/sharpeguard/internal/persistence"
	"github.com/quantgate/sharpeguard/internal/persistence/postgres"
	"github.com/quantgate/sharpeguard/internal/pipeline"
	"github.com/quantgate/sharpeguard/internal/risk"
)

// runPipeline executes the full chain: load, orchestrate, decide, emit.
func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pricesPath, _ := cmd.Flags().GetString("prices")

	price, dropped, err := data.NewLoader().LoadClose(pricesPath)
	if err != nil {
		return fmt.Errorf("price load failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	reg := metrics.Default()
	reg.RowsDropped.Add(float64(dropped))
	start := time.Now()
	result, err := pipeline.Run(ctx, price, cfg.Pipeline())
	reg.ObserveRun(time.Since(start), len(cfg.Strategy.SignalWindows), err)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	decision, err := risk.Decide(result.Snapshot, cfg.Risk.TradeWindow, cfg.Thresholds())
	if err != nil {
		return fmt.Errorf("decision failed: %w", err)
	}
	reg.ObserveDecision(decision)

	log.Info().
		Str("run_id", decision.RunID).
		Str("risk_mode", decision.Mode.String()).
		Float64("multiplier", decision.Multiplier).
		Float64("frac_below_warn", decision.FracBelowWarn).
		Float64("frac_below_stop", decision.FracBelowStop).
		Msg("decision evaluated")

	writer := artifacts.NewWriter(cfg.Output.Dir)
	paths, err := writer.WriteAll(result, decision)
	if err != nil {
		return fmt.Errorf("artifact write failed: %w", err)
	}

	publishOutputs(ctx, cfg, result, decision)
	printDecision(decision, paths)
	return nil
}

// publishOutputs pushes the run outputs to the optional stores. Failures are
// logged rather than fatal: the artifacts on disk are the source of truth.
func publishOutputs(ctx context.Context, cfg *config.Config, result *pipeline.Result, decision risk.Decision) {
	if cfg.Postgres.DSN != "" {
		db, err := postgres.Connect(cfg.Postgres.DSN)
		if err != nil {
			log.Warn().Err(err).Msg("postgres unavailable, skipping decision history")
		} else {
			defer db.Close()
			repo := postgres.NewDecisionRepo(db, time.Duration(cfg.Postgres.TimeoutSeconds)*time.Second)
			if err := repo.Insert(ctx, persistence.NewDecisionRecord(decision)); err != nil {
				log.Warn().Err(err).Msg("failed to store decision")
			}
		}
	}

	if cfg.Redis.Addr != "" {
		store := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		if err := store.SetDecision(ctx, decision); err != nil {
			log.Warn().Err(err).Msg("failed to cache decision")
		}
		if err := store.SetSnapshot(ctx, result.Snapshot); err != nil {
			log.Warn().Err(err).Msg("failed to cache snapshot")
		}
	}
}

func printDecision(d risk.Decision, paths []string) {
	fmt.Printf("risk_mode=%s multiplier=%.1f trade_window=%d", d.Mode, d.Multiplier, d.TradeWindow)
	if d.TradeScore.Valid {
		fmt.Printf(" trade_score=%.3f", d.TradeScore.Value)
	} else {
		fmt.Printf(" trade_score=undefined")
	}
	fmt.Printf(" frac_warn=%.2f frac_stop=%.2f\n", d.FracBelowWarn, d.FracBelowStop)
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
}

// loadConfig merges the config file with command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Output.Dir = out
	}
	if tw, _ := cmd.Flags().GetInt("trade-window"); tw > 0 {
		cfg.Risk.TradeWindow = tw
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
