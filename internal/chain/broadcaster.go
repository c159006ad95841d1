package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"liquidityDecrease/internal/model"
)

// BroadcastConfig holds gas and confirmation settings.
type BroadcastConfig struct {
	GasLimitFloor    uint64
	GasLimitHeadroom uint64
	ReceiptInterval  time.Duration
	ReceiptAttempts  int
}

// DefaultBroadcastConfig returns sane broadcast settings.
func DefaultBroadcastConfig() BroadcastConfig {
	return BroadcastConfig{
		GasLimitFloor:    150_000,
		GasLimitHeadroom: 120,
		ReceiptInterval:  2 * time.Second,
		ReceiptAttempts:  30,
	}
}

// Broadcaster signs transaction plans with a local key and submits
// them, waiting for the receipt.
type Broadcaster struct {
	client  *Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	cfg     BroadcastConfig
	logger  *zap.Logger
}

// NewBroadcaster builds a broadcaster from a hex private key.
func NewBroadcaster(ctx context.Context, client *Client, privateKeyHex string, cfg BroadcastConfig, logger *zap.Logger) (*Broadcaster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	return &Broadcaster{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// From returns the sender address derived from the key.
func (b *Broadcaster) From() common.Address {
	return b.from
}

// Send signs the plan payload and broadcasts it, returning the
// transaction hash once accepted by the mempool.
func (b *Broadcaster) Send(ctx context.Context, plan model.TransactionPlan) (common.Hash, error) {
	nonce, err := b.client.PendingNonceAt(ctx, b.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	head, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("latest header: %w", err)
	}
	tipCap, err := b.client.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest tip cap: %w", err)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	value := plan.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit, err := b.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  b.from,
		To:    &plan.To,
		Value: value,
		Data:  plan.Payload,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}
	gasLimit = gasLimit * b.cfg.GasLimitHeadroom / 100
	if gasLimit < b.cfg.GasLimitFloor {
		gasLimit = b.cfg.GasLimitFloor
	}

	to := plan.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   b.chainID,
		Nonce:     nonce,
		To:        &to,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		Value:     value,
		Data:      plan.Payload,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(b.chainID), b.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign transaction: %w", err)
	}

	if err := b.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send transaction: %w", err)
	}

	txHash := signed.Hash()
	b.logger.Info("transaction sent",
		zap.String("tx_hash", txHash.Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas_limit", gasLimit),
	)

	return txHash, nil
}

// Wait polls for the receipt. A status-zero receipt surfaces as
// *model.OnChainRevertError; the caller decides whether to retry,
// which it should not for decreases.
func (b *Broadcaster) Wait(ctx context.Context, txHash common.Hash) error {
	for attempt := 0; attempt < b.cfg.ReceiptAttempts; attempt++ {
		receipt, err := b.client.TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			timer := time.NewTimer(b.cfg.ReceiptInterval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("fetch receipt: %w", err)
		}
		if receipt.Status == types.ReceiptStatusFailed {
			return &model.OnChainRevertError{TxHash: txHash.Hex()}
		}
		b.logger.Info("transaction confirmed",
			zap.String("tx_hash", txHash.Hex()),
			zap.Uint64("block_number", receipt.BlockNumber.Uint64()),
		)
		return nil
	}
	return fmt.Errorf("gave up waiting for receipt of %s", txHash.Hex())
}
