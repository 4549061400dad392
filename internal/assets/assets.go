// Package assets holds the payable token/network allow-list and the
// provider asset identifiers they map to.
package assets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Networks
const (
	NetworkEthereum = "Ethereum"
	NetworkSolana   = "Solana"
	NetworkBitcoin  = "Bitcoin"
)

// Tokens
const (
	TokenUSDC = "USDC"
	TokenUSDT = "USDT"
	TokenETH  = "ETH"
	TokenBTC  = "BTC"
	TokenSOL  = "SOL"
)

// TokenNetworks lists the networks each token may be paid or received on.
var TokenNetworks = map[string][]string{
	TokenUSDC: {NetworkEthereum, NetworkSolana},
	TokenUSDT: {NetworkEthereum, NetworkSolana},
	TokenETH:  {NetworkEthereum},
	TokenBTC:  {NetworkBitcoin},
	TokenSOL:  {NetworkSolana},
}

var assetIDs = map[string]string{
	key(TokenUSDC, NetworkEthereum): "nep141:eth-0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48.omft.near",
	key(TokenUSDC, NetworkSolana):   "nep141:sol-5ce3bf3a31af18be40ba30f721101b4341690186.omft.near",
	key(TokenUSDT, NetworkEthereum): "nep141:eth-0xdac17f958d2ee523a2206206994597c13d831ec7.omft.near",
	key(TokenUSDT, NetworkSolana):   "nep141:sol-c800a4bd850783ccb82c2b7e84175443606352.omft.near",
	key(TokenETH, NetworkEthereum):  "nep141:eth.omft.near",
	key(TokenBTC, NetworkBitcoin):   "nep141:btc.omft.near",
	key(TokenSOL, NetworkSolana):    "nep141:sol.omft.near",
}

var decimals = map[string]int32{
	TokenUSDC: 6,
	TokenUSDT: 6,
	TokenETH:  18,
	TokenBTC:  8,
	TokenSOL:  9,
}

var (
	ErrUnsupportedToken = errors.New("unsupported token")
	ErrInvalidAmount    = errors.New("invalid amount")
)

func key(token, network string) string { return token + ":" + network }

func IsSupportedToken(token string) bool {
	_, ok := TokenNetworks[token]
	return ok
}

// IsValidPair reports whether token can be moved on network.
func IsValidPair(token, network string) bool {
	for _, n := range TokenNetworks[token] {
		if n == network {
			return true
		}
	}
	return false
}

// Tokens returns the supported token symbols in stable order.
func Tokens() []string {
	out := make([]string, 0, len(TokenNetworks))
	for t := range TokenNetworks {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AssetID returns the provider asset identifier for a token on a network.
func AssetID(token, network string) (string, error) {
	id, ok := assetIDs[key(token, network)]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrUnsupportedToken, token, network)
	}
	return id, nil
}

func Decimals(token string) (int32, error) {
	d, ok := decimals[token]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedToken, token)
	}
	return d, nil
}

// ParseAmount parses a positive decimal amount.
func ParseAmount(amount string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	return d, nil
}

// ToSmallestUnits converts a human amount of token into its integer base
// units, truncating any precision beyond the token's decimals.
func ToSmallestUnits(amount, token string) (string, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}
	exp, err := Decimals(token)
	if err != nil {
		return "", err
	}
	units := d.Shift(exp).Truncate(0)
	if !units.IsPositive() {
		return "", fmt.Errorf("%w: below one base unit of %s", ErrInvalidAmount, token)
	}
	return units.String(), nil
}
