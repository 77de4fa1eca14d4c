package protocol

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// CommonRequest is the wallet context every build opcode's pre-checks run
// against before any store or chain-indexer work happens, per the shared
// pre-check rules: at least one sender address, an optional collateral
// that must hex-decode, and — if a stake address is supplied — every base
// address must share its reward address.
type CommonRequest struct {
	UsedAddresses []string
	StakeAddr     string
	Collateral    string
}

// runPrechecks validates req, returning a Simple-error-worthy message on
// failure. Violations abort before touching any store.
func runPrechecks(req CommonRequest) error {
	if len(req.UsedAddresses) == 0 {
		return fmt.Errorf("no wallet address provided")
	}
	if req.Collateral != "" {
		if _, err := hex.DecodeString(req.Collateral); err != nil {
			return fmt.Errorf("collateral does not hex-decode")
		}
	}
	if req.StakeAddr != "" {
		wantCred, err := stakeCredentialOf(req.StakeAddr)
		if err != nil {
			return fmt.Errorf("invalid stake address: %w", err)
		}
		for _, addr := range req.UsedAddresses {
			cred, err := paymentAddrStakeCredential(addr)
			if err != nil {
				continue // not every used address is necessarily a base address
			}
			if cred != wantCred {
				return fmt.Errorf("stake address does not match one of the provided addresses, beware manipulation")
			}
		}
	}
	return nil
}

// stakeCredentialOf extracts the 28-byte credential hash from a bech32
// reward address (header byte E0/E1, 28-byte payload).
func stakeCredentialOf(addr string) ([28]byte, error) {
	var cred [28]byte
	payload, err := decodeBech32Payload(addr)
	if err != nil {
		return cred, err
	}
	if len(payload) != 29 {
		return cred, fmt.Errorf("protocol: reward address payload has unexpected length %d", len(payload))
	}
	header := payload[0] >> 4
	if header != 0xE && header != 0xF {
		return cred, fmt.Errorf("protocol: not a reward address")
	}
	copy(cred[:], payload[1:])
	return cred, nil
}

// paymentAddrStakeCredential extracts the stake credential embedded in a
// Shelley base address (payment credential followed by stake credential,
// 1+28+28 bytes), the portion the gateway's reward-address-match check
// compares against stakeCredentialOf.
func paymentAddrStakeCredential(addr string) ([28]byte, error) {
	var cred [28]byte
	payload, err := decodeBech32Payload(addr)
	if err != nil {
		return cred, err
	}
	if len(payload) != 57 {
		return cred, fmt.Errorf("protocol: not a base address")
	}
	copy(cred[:], payload[29:])
	return cred, nil
}

func decodeBech32Payload(addr string) ([]byte, error) {
	_, data, err := bech32.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("protocol: decoding bech32 address: %w", err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("protocol: converting bech32 payload: %w", err)
	}
	return payload, nil
}
