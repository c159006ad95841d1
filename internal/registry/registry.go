package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDecrease/internal/model"
)

// Token is one registry entry.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
	Native   bool
}

// TokenRegistry maps symbols to token metadata. Lookups are
// case-insensitive on the symbol.
type TokenRegistry struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// Entry is the config-file shape of a registry token.
type Entry struct {
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals uint8  `mapstructure:"decimals"`
	Native   bool   `mapstructure:"native"`
}

// New builds a registry from config entries. Entries with invalid
// addresses are rejected; the native currency uses the zero address.
func New(entries []Entry) (*TokenRegistry, error) {
	tokens := make(map[string]Token, len(entries))
	for _, entry := range entries {
		symbol := strings.TrimSpace(entry.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty symbol", model.ErrInvalidTokenConfiguration)
		}

		var address common.Address
		if !entry.Native {
			if !common.IsHexAddress(entry.Address) {
				return nil, fmt.Errorf("%w: bad address for %s: %q", model.ErrInvalidTokenConfiguration, symbol, entry.Address)
			}
			address = common.HexToAddress(entry.Address)
		}

		key := strings.ToUpper(symbol)
		if _, exists := tokens[key]; exists {
			return nil, fmt.Errorf("%w: duplicate symbol %s", model.ErrInvalidTokenConfiguration, symbol)
		}
		tokens[key] = Token{
			Symbol:   symbol,
			Address:  address,
			Decimals: entry.Decimals,
			Native:   entry.Native,
		}
	}
	return &TokenRegistry{tokens: tokens}, nil
}

// Lookup resolves a symbol. Missing symbols report
// model.ErrInvalidTokenConfiguration.
func (r *TokenRegistry) Lookup(symbol string) (Token, error) {
	r.mu.RLock()
	token, ok := r.tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	r.mu.RUnlock()
	if !ok {
		return Token{}, fmt.Errorf("%w: unknown symbol %s", model.ErrInvalidTokenConfiguration, symbol)
	}
	return token, nil
}
