package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantgate/sharpeguard/internal/artifacts"
	"github.com/quantgate/sharpeguard/internal/metrics"
	"github.com/quantgate/sharpeguard/internal/risk"
)

// runDecide re-evaluates the degradation rule over a stored snapshot matrix,
// useful for re-checking a decision with different thresholds.
func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	snapshotPath, _ := cmd.Flags().GetString("snapshot")

	snap, err := artifacts.ReadSnapshot(snapshotPath)
	if err != nil {
		return fmt.Errorf("snapshot load failed: %w", err)
	}

	decision, err := risk.Decide(snap, cfg.Risk.TradeWindow, cfg.Thresholds())
	if err != nil {
		return fmt.Errorf("decision failed: %w", err)
	}
	metrics.Default().ObserveDecision(decision)

	log.Info().
		Str("run_id", decision.RunID).
		Str("snapshot", snapshotPath).
		Str("risk_mode", decision.Mode.String()).
		Msg("decision re-evaluated")

	printDecision(decision, nil)
	return nil
}
