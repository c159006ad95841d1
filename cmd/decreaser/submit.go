package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityDecrease/internal/model"
)

func runSubmit(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	req, err := buildRequest(cmd, a.registry)
	if err != nil {
		return err
	}

	outcome, err := a.orch.ComputeNow(ctx, req)
	if err != nil {
		return err
	}

	if outcome.Result.Degraded() {
		return fmt.Errorf("refusing to submit a degraded plan: %s", outcome.Result.Warning)
	}

	if err := printOutcome(outcome); err != nil {
		return err
	}

	txHash, err := a.orch.Submit(ctx, outcome.Plan)
	if err != nil {
		if errors.Is(err, model.ErrUserRejectedSignature) {
			a.logger.Info("signature rejected, nothing submitted")
			return nil
		}
		var revert *model.OnChainRevertError
		if errors.As(err, &revert) {
			return fmt.Errorf("plan reverted, inspect tx %s", revert.TxHash)
		}
		return err
	}

	a.logger.Info("decrease confirmed", zap.String("tx_hash", txHash.Hex()))
	return nil
}
