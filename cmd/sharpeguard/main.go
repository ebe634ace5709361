package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	appName = "sharpeguard"
	version = "v0.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Mean-reversion signal monitor with cross-window risk gating",
		Version: version,
		Long: `sharpeguard turns a daily price series into a trading position, a cost-aware
backtest, rolling Sharpe monitoring across alternative signal windows, and a
discrete risk decision (NORMAL, REDUCE, STOP) gating live exposure.`,
		Run: runDefaultEntry,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline over a price CSV",
		Long:  "Loads a close-price CSV, runs the multi-window signal/backtest/Sharpe chain, evaluates the risk decision and writes timestamped artifacts",
		RunE:  runPipeline,
	}
	runCmd.Flags().String("prices", "", "Path to the close-price CSV (required)")
	runCmd.MarkFlagRequired("prices")
	addConfigFlags(runCmd.Flags())

	decideCmd := &cobra.Command{
		Use:   "decide",
		Short: "Evaluate the risk decision from an existing snapshot CSV",
		Long:  "Reads a previously written snapshot matrix and re-evaluates the degradation rule without re-running the backtests",
		RunE:  runDecide,
	}
	decideCmd.Flags().String("snapshot", "", "Path to a snapshot CSV (required)")
	decideCmd.MarkFlagRequired("snapshot")
	addConfigFlags(decideCmd.Flags())

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start the monitoring HTTP server",
		Long:  "Serves /health, /metrics, /decision, /snapshot and a /ws decision stream from the Redis cache",
		RunE:  runMonitor,
	}
	addConfigFlags(monitorCmd.Flags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// addConfigFlags registers the flags shared by every subcommand.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a YAML config file (defaults apply when omitted)")
	flags.String("out", "", "Output directory override for artifacts")
	flags.Int("trade-window", 0, "Trade window override (0 keeps config value)")
}

// runDefaultEntry routes bare invocations: interactive terminals get help,
// scripts get a machine-friendly hint and a non-zero exit.
func runDefaultEntry(cmd *cobra.Command, args []string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "sharpeguard requires a subcommand in non-interactive use:\n\n")
		fmt.Fprintf(os.Stderr, "  sharpeguard run --prices data/raw/spy.csv\n")
		fmt.Fprintf(os.Stderr, "  sharpeguard decide --snapshot out/derived/snapshot_20250715_120000.csv\n")
		fmt.Fprintf(os.Stderr, "  sharpeguard monitor\n")
		os.Exit(2)
	}
	cmd.Help()
}
