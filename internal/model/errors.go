package model

import (
	"errors"
	"fmt"
)

// Calculation and transaction error taxonomy. Calculation-layer
// failures are recoverable through the solver's fallback chain;
// transaction-layer failures always surface to the caller.
var (
	// ErrTransientFetch wraps a failed position/pool state query.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrUnresolvableIdentifier means the position identifier could not
	// be mapped to an on-chain token id. Fatal; no fallback.
	ErrUnresolvableIdentifier = errors.New("unresolvable position identifier")

	// ErrInvalidTokenConfiguration means a symbol is missing from the
	// token registry. Configuration bug, not user input.
	ErrInvalidTokenConfiguration = errors.New("invalid token configuration")

	// ErrUserRejectedSignature means the signer declined. Not logged as
	// an error; the orchestrator returns to idle.
	ErrUserRejectedSignature = errors.New("user rejected signature")

	// ErrResolveTimeout means position resolution exceeded its bound.
	ErrResolveTimeout = errors.New("position resolution timed out")
)

// OnChainRevertError carries the hash of a reverted transaction for
// inspection. The orchestrator never retries these automatically.
type OnChainRevertError struct {
	TxHash string
}

func (e *OnChainRevertError) Error() string {
	return fmt.Sprintf("transaction reverted on chain: %s", e.TxHash)
}
