package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "decreaser",
		Short:        "Liquidity position decrease planner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a decrease and print the transaction plan",
		RunE:  runPlan,
	}
	addRequestFlags(planCmd)
	root.AddCommand(planCmd)

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Compute a decrease, sign it, and broadcast the plan",
		RunE:  runSubmit,
	}
	addRequestFlags(submitCmd)
	submitCmd.Flags().String("private-key", "", "hex private key for signing")
	root.AddCommand(submitCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "EVM RPC URL")
	cmd.Flags().String("position-manager", "", "position manager contract address")
	cmd.Flags().String("state-view", "", "state view contract address")
	cmd.Flags().String("recipient", "", "withdrawal recipient address")

	cmd.Flags().String("position-id", "", "position token id")
	cmd.Flags().String("token0", "", "display token0 symbol")
	cmd.Flags().String("token1", "", "display token1 symbol")
	cmd.Flags().String("amount0", "", "desired token0 amount (display units)")
	cmd.Flags().String("amount1", "", "desired token1 amount (display units)")
	cmd.Flags().String("entered", "", "which side the amount was entered on (token0|token1)")
	cmd.Flags().Uint32("percent-bps", 0, "percentage withdrawal in basis points (1-10000)")
	cmd.Flags().Bool("full-burn", false, "withdraw everything and burn the position")
	cmd.Flags().String("fee0", "", "uncollected token0 fees to include (raw units)")
	cmd.Flags().String("fee1", "", "uncollected token1 fees to include (raw units)")

	cmd.Flags().String("pg-dsn", "", "Postgres DSN for the plan audit trail")
	cmd.Flags().String("out", "./data/plans.jsonl", "plan audit JSONL path")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
