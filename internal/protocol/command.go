package protocol

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Value"
	"github.com/Salvionied/cbor/v2"

	connector "github.com/zenGate-Global/cardano-tx-platform"
	"github.com/zenGate-Global/cardano-tx-platform/internal/intents"
	"github.com/zenGate-Global/cardano-tx-platform/internal/keycustody"
	"github.com/zenGate-Global/cardano-tx-platform/internal/platformlog"
	"github.com/zenGate-Global/cardano-tx-platform/internal/store"
	"github.com/zenGate-Global/cardano-tx-platform/internal/systemdb"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// TTLSlots is how far past the current tip every build sets its
// transaction's time-to-live, long enough for a wallet round trip.
const TTLSlots = 3600

// SecretMount is the Vault KV v2 mount signing-key passphrases are stored
// under, keyed by keycustody.ContractIdentityHash.
const SecretMount = "drasil-keys"

// Dispatcher holds every dependency a command handler needs: the chain
// read/submit path, the System DB repositories, the used-utxo and raw-tx
// stores, and the secret store backing key decryption. One Dispatcher is
// shared across every connection a listener accepts.
type Dispatcher struct {
	Provider connector.Provider
	PP       txbuilder.ProtocolParams

	Contracts   *systemdb.ContractRepository
	Tenants     *systemdb.TenantRepository
	KeyLocators *systemdb.KeyLocatorRepository
	Discounts   *systemdb.DiscountRepository
	Rewards     *systemdb.RewardRepository
	Mints       *systemdb.MintRepository
	Payouts     *systemdb.PayoutRepository
	Claims      *systemdb.ClaimRepository

	Secrets   keycustody.SecretStore
	UsedUTxOs store.UsedUTxOSet
	RawTxs    store.RawTxStore

	Log *platformlog.Logger
}

// Dispatch decodes one command frame and runs it, returning the response
// frame to write back. It never panics on malformed input: every decode
// failure becomes an Error frame.
func (d *Dispatcher) Dispatch(ctx context.Context, frame Frame) Frame {
	cursor, err := NewCursor(frame)
	if err != nil {
		return ErrorFrame(err.Error())
	}
	opcode, err := cursor.NextString()
	if err != nil {
		return ErrorFrame("protocol error; missing opcode")
	}

	var resp Frame
	switch opcode {
	case "bct":
		resp, err = d.handleBuild(ctx, cursor, contractIntents)
	case "bms":
		resp, err = d.handleBuild(ctx, cursor, multisigIntents)
	case "stx":
		resp, err = d.handleBuild(ctx, cursor, stdTxIntents)
	case "fct", "fms", "ftx":
		resp, err = d.handleFinalize(ctx, cursor)
	case "vus":
		resp, err = d.handleVerifyUser(ctx, cursor)
	default:
		return ErrorFrame(fmt.Sprintf("unknown command %q", opcode))
	}
	if err != nil {
		return ErrorFrame(err.Error())
	}
	return resp
}

// intentBuilder resolves one intent's request parameters into the Step
// txbuilder.Build drives, the Value SelectInputs must cover for it, and any
// extra source addresses SelectInputs should scan besides the wallet's own
// used addresses. Intents that spend a specific on-chain UTxO directly via
// CollectFrom (marketplace cancel, validator unregister, ...) return a zero
// Value and a nil address list: SelectInputs still runs against the wallet's
// own addresses to cover the transaction fee. Intents that draw their payout
// from a contract-controlled address's own UTxOs (reward claim, treasury
// payout) return that address so SelectInputs can find it.
type intentBuilder func(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error)

var contractIntents = map[string]intentBuilder{
	"marketplace_list":     buildMarketplaceList,
	"marketplace_cancel":   buildMarketplaceCancel,
	"marketplace_buy":      buildMarketplaceBuy,
	"marketplace_update":   buildMarketplaceUpdate,
	"validator_register":   buildValidatorRegister,
	"validator_unregister": buildValidatorUnregister,
}

var multisigIntents = map[string]intentBuilder{
	"reward_claim":    buildRewardClaim,
	"collection_mint": buildCollectionMint,
	"oneshot_mint":    buildOneshotMint,
}

var stdTxIntents = map[string]intentBuilder{
	"standard_transfer": buildStandardTransfer,
	"stake_delegate":    buildStakeDelegate,
	"stake_deregister":  buildStakeDeregister,
	"treasury_payout":   buildTreasuryPayout,
}

// handleBuild runs the shared build path every bct/bms/stx command shares:
// decode, pre-check, resolve the named intent against table, fetch chain
// context, run the fee-fixed-point build, and persist the raw tx.
func (d *Dispatcher) handleBuild(ctx context.Context, cursor *Cursor, table map[string]intentBuilder) (Frame, error) {
	tenantID, err := cursor.NextInt()
	if err != nil {
		return Frame{}, fmt.Errorf("missing tenant id")
	}
	payload, err := cursor.NextBytes()
	if err != nil {
		return Frame{}, fmt.Errorf("missing request payload")
	}
	if err := cursor.Finish(); err != nil {
		return Frame{}, err
	}

	var req BuildRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return Frame{}, fmt.Errorf("decoding build request: %w", err)
	}
	if err := runPrechecks(req.Common); err != nil {
		return Frame{}, err
	}

	builder, ok := table[req.Intent]
	if !ok {
		return Frame{}, fmt.Errorf("unknown intent %q", req.Intent)
	}

	step, need, extraAddrs, err := builder(ctx, d, int64(tenantID), req.ContractID, req.Version, req.Common, req.Params)
	if err != nil {
		return Frame{}, err
	}

	tip, err := d.Provider.GetTip(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("reading chain tip: %w", err)
	}

	available, err := intents.AvailableUTxOsFor(ctx, d.Provider.GetUtxosByAddress, req.Common.UsedAddresses)
	if err != nil {
		return Frame{}, err
	}
	if len(extraAddrs) > 0 {
		extra, err := intents.AvailableUTxOsFor(ctx, d.Provider.GetUtxosByAddress, extraAddrs)
		if err != nil {
			return Frame{}, err
		}
		available = append(available, extra...)
	}
	selected, err := txbuilder.SelectInputs(ctx, d.UsedUTxOs, available, need)
	if err != nil {
		return Frame{}, fmt.Errorf("selecting inputs: %w", err)
	}

	changeAddr, err := firstAddress(req.Common.UsedAddresses)
	if err != nil {
		return Frame{}, err
	}

	out, err := txbuilder.Build(ctx, d.PP, selected, changeAddr, tip.Slot, TTLSlots, step)
	if err != nil {
		return Frame{}, fmt.Errorf("building transaction: %w", err)
	}

	fingerprint := txcodec.RawTxFingerprint(out.TxBody, out.TxAux, []byte(req.Common.StakeAddr), payload, req.Params)
	unsigned, err := txcodec.JoinTransaction(out.TxBody, out.TxWitness, out.TxAux)
	if err != nil {
		return Frame{}, err
	}
	rec := &txcodec.RawTxRecord{
		TxBody:      out.TxBody,
		TxWitness:   out.TxWitness,
		TxUnsigned:  unsigned,
		TxAux:       out.TxAux,
		TxRawData:   payload,
		TxSpecific:  req.Params,
		UsedUtxos:   txcodec.FromSelectedUTxOs(out.SelectedIn),
		StakeAddr:   []byte(req.Common.StakeAddr),
		TenantID:    int64(tenantID),
		ContractIDs: []int64{req.ContractID},
	}
	if err := d.RawTxs.Put(ctx, fingerprint, rec); err != nil {
		return Frame{}, fmt.Errorf("persisting raw tx: %w", err)
	}

	respBytes, err := cbor.Marshal(BuildResponse{Fingerprint: fingerprint, UnsignedTx: unsigned})
	if err != nil {
		return Frame{}, err
	}
	return BulkBytes(respBytes), nil
}

// handleFinalize runs the shared finalize path for fct/fms/ftx: acquire the
// per-fingerprint lock, replay an already-finalized result idempotently,
// otherwise decrypt the contract's signing keys, co-sign, submit, and mark
// the spent inputs used.
func (d *Dispatcher) handleFinalize(ctx context.Context, cursor *Cursor) (Frame, error) {
	tenantID, err := cursor.NextInt()
	if err != nil {
		return Frame{}, fmt.Errorf("missing tenant id")
	}
	payload, err := cursor.NextBytes()
	if err != nil {
		return Frame{}, fmt.Errorf("missing request payload")
	}
	if err := cursor.Finish(); err != nil {
		return Frame{}, err
	}

	var req FinalizeRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return Frame{}, fmt.Errorf("decoding finalize request: %w", err)
	}

	unlock, err := d.RawTxs.Lock(ctx, req.Fingerprint)
	if err != nil {
		return Frame{}, fmt.Errorf("acquiring finalize lock: %w", err)
	}
	defer unlock()

	if txHash, ok, err := d.RawTxs.GetFinalizeResult(ctx, req.Fingerprint); err != nil {
		return Frame{}, err
	} else if ok {
		return finalizeResponseFrame(txHash)
	}

	rec, err := d.RawTxs.Get(ctx, req.Fingerprint)
	if err != nil {
		return Frame{}, err
	}

	contract, err := d.Contracts.Get(ctx, int64(tenantID), req.ContractID)
	if err != nil {
		return Frame{}, err
	}
	locator, err := d.KeyLocators.Get(ctx, int64(tenantID), req.ContractID, req.Version)
	if err != nil {
		return Frame{}, err
	}

	witness := rec.TxWitness
	if len(req.UserVkey) > 0 && len(req.UserSignature) > 0 {
		witness, err = txcodec.AppendVkeyWitnesses(witness, txcodec.RawArray(
			txcodec.RawBytes(req.UserVkey), txcodec.RawBytes(req.UserSignature),
		))
		if err != nil {
			return Frame{}, err
		}
	}

	for _, ciphertext := range locator.Ciphertexts {
		priv, err := d.decryptSigningKey(ctx, int64(tenantID), req.ContractID, req.Version, contract.Address, ciphertext)
		if err != nil {
			return Frame{}, fmt.Errorf("decrypting signing key: %w", err)
		}
		sigWitness := txcodec.SignVkeyWitness(rec.TxBody, priv)
		witness, err = txcodec.AppendVkeyWitnesses(witness, sigWitness)
		if err != nil {
			return Frame{}, err
		}
	}

	full, err := txcodec.JoinTransaction(rec.TxBody, witness, rec.TxAux)
	if err != nil {
		return Frame{}, err
	}

	txHash, err := d.Provider.SubmitTx(ctx, full)
	if err != nil {
		return Frame{}, fmt.Errorf("submitting transaction: %w", err)
	}

	outpoints := make([]store.Outpoint, len(rec.UsedUtxos))
	for i, ref := range rec.UsedUtxos {
		outpoints[i] = store.Outpoint{TxHash: ref.Hash, Index: ref.Index}
	}
	if err := d.UsedUTxOs.AddMany(ctx, outpoints); err != nil {
		d.Log.Error(req.Fingerprint, err, "marking utxos used after successful submit")
	}
	if err := d.RawTxs.SetFinalizeResult(ctx, req.Fingerprint, txHash); err != nil {
		d.Log.Error(req.Fingerprint, err, "recording finalize result")
	}

	return finalizeResponseFrame(txHash)
}

func finalizeResponseFrame(txHash string) (Frame, error) {
	respBytes, err := cbor.Marshal(FinalizeResponse{TxHash: txHash})
	if err != nil {
		return Frame{}, err
	}
	return BulkBytes(respBytes), nil
}

// decryptSigningKey re-derives a contract's identity hash, reads its
// passphrase from the secret store, and decrypts one ciphertext into an
// ed25519 signing key.
func (d *Dispatcher) decryptSigningKey(ctx context.Context, tenantID, contractID int64, version float32, address, ciphertext string) (ed25519.PrivateKey, error) {
	h := keycustody.ContractIdentityHash(tenantID, contractID, version, address)
	password, err := d.Secrets.GetPassword(ctx, SecretMount, h)
	if err != nil {
		return nil, err
	}
	plaintext, err := keycustody.Decrypt(ciphertext, password)
	if err != nil {
		return nil, err
	}
	if len(plaintext) < ed25519.SeedSize {
		return nil, fmt.Errorf("protocol: decrypted signing key shorter than an ed25519 seed")
	}
	return ed25519.NewKeyFromSeed(plaintext[:ed25519.SeedSize]), nil
}

// handleVerifyUser checks a caller-supplied password against a contract's
// stored signing-key ciphertext, the second factor treasury-payout gates
// on ahead of JWT auth alone.
func (d *Dispatcher) handleVerifyUser(ctx context.Context, cursor *Cursor) (Frame, error) {
	tenantID, err := cursor.NextInt()
	if err != nil {
		return Frame{}, fmt.Errorf("missing tenant id")
	}
	payload, err := cursor.NextBytes()
	if err != nil {
		return Frame{}, fmt.Errorf("missing request payload")
	}
	if err := cursor.Finish(); err != nil {
		return Frame{}, err
	}

	var req VerifyUserRequest
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return Frame{}, fmt.Errorf("decoding verify-user request: %w", err)
	}

	locator, err := d.KeyLocators.Get(ctx, int64(tenantID), req.ContractID, req.Version)
	if err != nil {
		return Frame{}, err
	}
	if len(locator.Ciphertexts) == 0 {
		return Frame{}, fmt.Errorf("contract has no signing keys to verify against")
	}
	if _, err := keycustody.Decrypt(locator.Ciphertexts[0], req.Password); err != nil {
		return Simple("DENIED"), nil
	}
	return Simple("OK"), nil
}

// firstAddress decodes the wallet's primary used address, the change
// address every build seeds the apollo builder with.
func firstAddress(addresses []string) (Address.Address, error) {
	if len(addresses) == 0 {
		return Address.Address{}, fmt.Errorf("protocol: no wallet address provided")
	}
	return Address.DecodeAddress(addresses[0])
}
