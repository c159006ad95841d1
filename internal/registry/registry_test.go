package registry

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"liquidityDecrease/internal/model"
)

func TestRegistryLookup(t *testing.T) {
	reg, err := New([]Entry{
		{Symbol: "USDT", Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18},
		{Symbol: "BNB", Native: true, Decimals: 18},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := reg.Lookup("usdt")
	if err != nil {
		t.Fatalf("lookup should be case-insensitive: %v", err)
	}
	if token.Address != common.HexToAddress("0x55d398326f99059fF775485246999027B3197955") {
		t.Fatalf("wrong address: %s", token.Address)
	}
	if token.Decimals != 18 {
		t.Fatalf("wrong decimals: %d", token.Decimals)
	}

	token, err = reg.Lookup(" bnb ")
	if err != nil {
		t.Fatalf("lookup should trim whitespace: %v", err)
	}
	if !token.Native || token.Address != (common.Address{}) {
		t.Fatalf("native token must carry the zero address")
	}

	if _, err := reg.Lookup("CAKE"); !errors.Is(err, model.ErrInvalidTokenConfiguration) {
		t.Fatalf("unknown symbol should report invalid configuration, got %v", err)
	}
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name    string
		entries []Entry
	}{
		{name: "empty symbol", entries: []Entry{{Symbol: "  ", Address: "0x55d398326f99059fF775485246999027B3197955"}}},
		{name: "bad address", entries: []Entry{{Symbol: "USDT", Address: "not-an-address"}}},
		{name: "missing address", entries: []Entry{{Symbol: "USDT"}}},
		{
			name: "duplicate symbol",
			entries: []Entry{
				{Symbol: "usdt", Address: "0x55d398326f99059fF775485246999027B3197955"},
				{Symbol: "USDT", Address: "0x55d398326f99059fF775485246999027B3197955"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.entries); !errors.Is(err, model.ErrInvalidTokenConfiguration) {
				t.Fatalf("expected invalid configuration, got %v", err)
			}
		})
	}
}
