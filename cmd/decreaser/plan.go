package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityDecrease/internal/chain"
	"liquidityDecrease/internal/config"
	"liquidityDecrease/internal/dex"
	"liquidityDecrease/internal/engine"
	"liquidityDecrease/internal/model"
	"liquidityDecrease/internal/registry"
	"liquidityDecrease/internal/storage"
	"liquidityDecrease/internal/storage/postgres"
)

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	client   *chain.Client
	registry *registry.TokenRegistry
	orch     *engine.Orchestrator
	store    *postgres.Store
	chainID  uint64
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.client != nil {
		a.client.Close()
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cmd, false)
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

	return printOutcome(outcome)
}

func buildApp(ctx context.Context, cmd *cobra.Command, withSubmitter bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.PositionManager) {
		return nil, fmt.Errorf("position manager address is required")
	}
	if !common.IsHexAddress(cfg.StateView) {
		return nil, fmt.Errorf("state view address is required")
	}
	if !common.IsHexAddress(cfg.Recipient) {
		return nil, fmt.Errorf("recipient address is required")
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	tokenRegistry, err := registry.New(cfg.Tokens)
	if err != nil {
		client.Close()
		return nil, err
	}

	manager := common.HexToAddress(cfg.PositionManager)
	stateView := common.HexToAddress(cfg.StateView)
	recipient := common.HexToAddress(cfg.Recipient)

	engineCfg := engine.DefaultConfig()
	engineCfg.CushionBps = cfg.CushionBps
	engineCfg.FullBurnBps = cfg.FullBurnBps
	engineCfg.MinFallbackLiquidity = big.NewInt(cfg.MinFallbackLiquidity)
	engineCfg.DebounceInterval = cfg.Debounce
	engineCfg.ResolveTimeout = cfg.ResolveTimeout
	engineCfg.DeadlineWindow = cfg.DeadlineWindow
	engineCfg.MaxRetries = cfg.MaxRetries
	engineCfg.RetryBackoff = cfg.RetryBackoff

	positions := dex.NewPositionQuery(client, manager, logger)
	pools := dex.NewPoolStateQuery(client, stateView, logger)

	eng, err := engine.New(engineCfg, positions, pools, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	var sinks storage.MultiSink
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		sinks = append(sinks, store)
	}
	var sink storage.PlanSink
	if len(sinks) > 0 {
		sink = sinks
	}

	var submitter engine.Submitter
	if withSubmitter {
		if cfg.PrivateKey == "" {
			client.Close()
			return nil, fmt.Errorf("private key is required for submit")
		}
		broadcaster, err := chain.NewBroadcaster(ctx, client, cfg.PrivateKey, chain.DefaultBroadcastConfig(), logger)
		if err != nil {
			client.Close()
			return nil, err
		}
		submitter = broadcaster
	}

	orch := engine.NewOrchestrator(eng, manager, recipient, submitter, sink, chainID.Uint64(), logger)

	logger.Info("decreaser ready",
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.String("position_manager", manager.Hex()),
		zap.String("state_view", stateView.Hex()),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		registry: tokenRegistry,
		orch:     orch,
		store:    store,
		chainID:  chainID.Uint64(),
	}, nil
}

func buildRequest(cmd *cobra.Command, tokenRegistry *registry.TokenRegistry) (model.DecreaseRequest, error) {
	flags := cmd.Flags()

	positionIDStr, _ := flags.GetString("position-id")
	positionID, ok := new(big.Int).SetString(positionIDStr, 10)
	if !ok || positionIDStr == "" {
		return model.DecreaseRequest{}, fmt.Errorf("invalid position id: %q", positionIDStr)
	}

	req := model.DecreaseRequest{PositionID: positionID}
	req.DesiredAmount0, _ = flags.GetString("amount0")
	req.DesiredAmount1, _ = flags.GetString("amount1")
	req.PercentBps, _ = flags.GetUint32("percent-bps")
	req.IsFullBurn, _ = flags.GetBool("full-burn")

	entered, _ := flags.GetString("entered")
	switch entered {
	case "token0":
		req.EnteredSide = model.EnteredToken0
	case "token1":
		req.EnteredSide = model.EnteredToken1
	case "":
		req.EnteredSide = model.EnteredNone
	default:
		return model.DecreaseRequest{}, fmt.Errorf("invalid entered side: %q", entered)
	}

	symbol0, _ := flags.GetString("token0")
	symbol1, _ := flags.GetString("token1")
	if symbol0 != "" && symbol1 != "" {
		token0, err := tokenRegistry.Lookup(symbol0)
		if err != nil {
			return model.DecreaseRequest{}, err
		}
		token1, err := tokenRegistry.Lookup(symbol1)
		if err != nil {
			return model.DecreaseRequest{}, err
		}
		req.Decimals0 = token0.Decimals
		req.Decimals1 = token1.Decimals
		// Canonical order is decided by address bytes, once, here.
		req.Mapping = model.SideMapping{
			Flipped: bytes.Compare(token0.Address.Bytes(), token1.Address.Bytes()) > 0,
		}
	} else {
		req.Decimals0 = 18
		req.Decimals1 = 18
	}

	fee0Str, _ := flags.GetString("fee0")
	fee1Str, _ := flags.GetString("fee1")
	if fee0Str != "" || fee1Str != "" {
		fees := &model.FeeAmounts{Amount0: big.NewInt(0), Amount1: big.NewInt(0)}
		if fee0Str != "" {
			fee0, ok := new(big.Int).SetString(fee0Str, 10)
			if !ok {
				return model.DecreaseRequest{}, fmt.Errorf("invalid fee0: %q", fee0Str)
			}
			fees.Amount0 = fee0
		}
		if fee1Str != "" {
			fee1, ok := new(big.Int).SetString(fee1Str, 10)
			if !ok {
				return model.DecreaseRequest{}, fmt.Errorf("invalid fee1: %q", fee1Str)
			}
			fees.Amount1 = fee1
		}
		req.FeesToInclude = fees
	}

	return req, nil
}

func printOutcome(outcome engine.Outcome) error {
	view := struct {
		Version  uint64                `json:"version"`
		Result   model.DecreaseResult  `json:"result"`
		Plan     model.TransactionPlan `json:"plan"`
		Computed string                `json:"computed_at"`
	}{
		Version:  outcome.Version,
		Result:   outcome.Result,
		Plan:     outcome.Plan,
		Computed: time.Now().UTC().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(view)
}
