package assets

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

// AddressValidator checks that an address is well formed for a network.
type AddressValidator interface {
	IsValidAddress(network, address string) bool
}

// DefaultAddressValidator validates mainnet addresses of the supported networks.
type DefaultAddressValidator struct{}

func (DefaultAddressValidator) IsValidAddress(network, address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	switch network {
	case NetworkEthereum:
		return common.IsHexAddress(address) && strings.HasPrefix(address, "0x")
	case NetworkSolana:
		_, err := solana.PublicKeyFromBase58(address)
		return err == nil
	case NetworkBitcoin:
		addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
		if err != nil {
			return false
		}
		return addr.IsForNet(&chaincfg.MainNetParams)
	default:
		return false
	}
}
