package protocol

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Salvionied/apollo/serialization/Value"
	"github.com/Salvionied/cbor/v2"
	"github.com/google/uuid"

	"github.com/zenGate-Global/cardano-tx-platform/internal/intents"
	"github.com/zenGate-Global/cardano-tx-platform/internal/systemdb"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
)

type transferRecipientParam struct {
	Address  string
	Lovelace int64
	Assets   []assetParam
}

type standardTransferParams struct {
	Recipients []transferRecipientParam
}

// buildStandardTransfer moves value from the wallet's own used addresses to
// one or more recipients.
func buildStandardTransfer(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p standardTransferParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding standard_transfer params: %w", err)
	}
	if len(p.Recipients) == 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: standard_transfer requires at least one recipient")
	}

	recipients := make([]intents.TransferRecipient, len(p.Recipients))
	for i, r := range p.Recipients {
		addr, err := decodeAddr(r.Address)
		if err != nil {
			return nil, Value.Value{}, nil, err
		}
		val, err := valueOf(r.Lovelace, r.Assets)
		if err != nil {
			return nil, Value.Value{}, nil, err
		}
		recipients[i] = intents.TransferRecipient{Address: addr, Amount: val}
	}

	step := &intents.StandardTransfer{Recipients: recipients}
	return step, intents.TransferNeed(recipients), nil, nil
}

type stakeDelegateParams struct {
	NativeScript string
	PoolKeyHash  string
}

// buildStakeDelegate delegates the tenant's script-controlled stake
// credential, registering it first if it isn't already on chain.
func buildStakeDelegate(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p stakeDelegateParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding stake_delegate params: %w", err)
	}
	if common.StakeAddr == "" {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: stake_delegate requires a stake address")
	}
	nativeScript, err := hex.DecodeString(p.NativeScript)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: native script does not hex-decode: %w", err)
	}
	poolKeyHash, err := decodeHash28(p.PoolKeyHash)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	registered, err := d.Provider.IsStakeRegistered(ctx, common.StakeAddr)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: checking stake registration: %w", err)
	}

	step := &intents.StakeDelegate{NativeScript: nativeScript, PoolKeyHash: poolKeyHash, Registered: registered}
	return step, Value.Value{Coin: 0}, nil, nil
}

type stakeDeregisterParams struct {
	NativeScript string
}

// buildStakeDeregister withdraws the tenant's script-controlled stake
// credential from delegation.
func buildStakeDeregister(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p stakeDeregisterParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding stake_deregister params: %w", err)
	}
	if common.StakeAddr == "" {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: stake_deregister requires a stake address")
	}
	registered, err := d.Provider.IsStakeRegistered(ctx, common.StakeAddr)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: checking stake registration: %w", err)
	}
	if !registered {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: stake address is not registered")
	}
	nativeScript, err := hex.DecodeString(p.NativeScript)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: native script does not hex-decode: %w", err)
	}

	step := &intents.StakeDeregister{NativeScript: nativeScript}
	return step, Value.Value{Coin: 0}, nil, nil
}

type treasuryPayoutParams struct {
	PayoutID string
}

// payoutValue is the shape payout_requests.value_json carries: the
// recipient and the ada-plus-asset amount a treasury payout row commits to.
type payoutValue struct {
	Recipient string
	Lovelace  int64
	Assets    []assetParam
}

// buildTreasuryPayout moves liquidity out of a tenant's treasury contract
// address to the recipient an already-approved payout row names. The
// payout's stored hash is re-verified so a row edited after approval can
// never be built against.
func buildTreasuryPayout(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p treasuryPayoutParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding treasury_payout params: %w", err)
	}
	id, err := uuid.Parse(p.PayoutID)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: invalid payout id: %w", err)
	}

	payout, err := d.Payouts.Get(ctx, tenantID, id)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	if err := d.Payouts.VerifyHash(ctx, payout); err != nil {
		return nil, Value.Value{}, nil, err
	}
	if payout.PayoutStatus != systemdb.PayoutAdminApproved {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: payout %s is not admin-approved", id)
	}

	var pv payoutValue
	if err := json.Unmarshal(payout.ValueJSON, &pv); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: decoding payout value: %w", err)
	}
	recipient, err := decodeAddr(pv.Recipient)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	amount, err := valueOf(pv.Lovelace, pv.Assets)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}

	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	nativeScript, err := hex.DecodeString(contract.Plutus)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: treasury script does not hex-decode: %w", err)
	}

	onChainUTxOs, err := d.Provider.GetUtxosByAddress(ctx, contract.Address)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: reading treasury utxos: %w", err)
	}
	var onChainAda int64
	for _, u := range onChainUTxOs {
		onChainAda += u.Output.GetAmount().GetCoin()
	}
	reserved := nullInt(contract.DrasilLqdty) + nullInt(contract.CustomerLqdty) + nullInt(contract.ExternalLqdty)
	available := onChainAda - reserved
	if pv.Lovelace > available {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: payout exceeds available treasury liquidity")
	}

	step := &intents.TreasuryPayout{Recipient: recipient, Amount: amount, NativeScript: nativeScript}
	return step, amount, []string{contract.Address}, nil
}
