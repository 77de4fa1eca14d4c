package gateway

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Salvionied/cbor/v2"
)

// transactionPattern is the common JSON envelope every build route accepts:
// the wallet's own used addresses plus optional stake/collateral/password
// context, and an intent-specific params object passed through to L8
// undecoded. This is the gateway's "transaction-pattern" / "wallet-
// transaction-pattern" shape of spec.md §4.6 — the two collapse to one Go
// type since both carry the same fields, differing only in which route
// they arrive on.
type transactionPattern struct {
	UsedAddresses []string        `json:"usedAddresses"`
	StakeAddress  string          `json:"stakeAddress,omitempty"`
	Collateral    string          `json:"collateral,omitempty"`
	ContractID    int64           `json:"contractId"`
	Version       float32         `json:"version"`
	Password      string          `json:"password,omitempty"`
	Params        json.RawMessage `json:"params"`
}

// valid reports whether the envelope has the minimum shape every build
// needs, the gateway's half of the closed-set sniff: a body that doesn't
// even parse to this much is tried against the next pattern in line.
func (p transactionPattern) valid() bool {
	return len(p.UsedAddresses) > 0
}

// signature is spec.md §4.6's "signature" JSON intent: a finalize call
// carrying the wallet's witness; the fingerprint it finalizes is taken from
// the request's URL path, not from this body.
type signature struct {
	ContractID  int64   `json:"contractId"`
	Version     float32 `json:"version"`
	UserVkeyHex string  `json:"userVkey,omitempty"`
	UserSigHex  string  `json:"userSignature,omitempty"`
}

// oneshotMintPayload is spec.md §4.6's "oneshot-mint-payload" JSON intent:
// a single-call mint with no build/finalize round trip.
type oneshotMintPayload struct {
	ContractID int64  `json:"contractId"`
	Version    float32 `json:"version"`
	Recipient  string `json:"recipient"`
	AssetName  string `json:"assetName"`
	Quantity   int64  `json:"quantity"`
}

func (p oneshotMintPayload) valid() bool {
	return p.Recipient != "" && p.AssetName != "" && p.Quantity > 0
}

// paramsToCBOR re-encodes a JSON params object as CBOR for the intent
// builder on the other side of L8 to decode. Callers on the wire are
// expected to key params objects with the same exported field names the
// platform's internal param structs use (e.g. "PolicyID", "AssetName"),
// since neither encoding carries tags translating one casing to the other.
func paramsToCBOR(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return cbor.Marshal(map[string]interface{}{})
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("gateway: params is not valid json: %w", err)
	}
	out, err := cbor.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("gateway: re-encoding params as cbor: %w", err)
	}
	return out, nil
}

func decodeHexOrEmpty(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hex.DecodeString(s)
}

type buildResponseJSON struct {
	Fingerprint string `json:"fingerprint"`
	UnsignedTx  string `json:"unsignedTx"`
}

type finalizeResponseJSON struct {
	TxHash string `json:"txHash"`
}

type oneshotMintResponseJSON struct {
	PolicyID   string   `json:"policyId"`
	TokenNames []string `json:"tokenNames"`
	Amounts    []int64  `json:"amounts"`
	TxHash     string   `json:"txHash"`
}

type errorResponseJSON struct {
	Detail string `json:"detail"`
}

type contractJSON struct {
	ContractID   int64   `json:"contractId"`
	ContractType string  `json:"contractType"`
	Version      float32 `json:"version"`
	Address      string  `json:"address"`
	PolicyID     string  `json:"policyId,omitempty"`
	Deprecated   bool    `json:"deprecated"`
}
