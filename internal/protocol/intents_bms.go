package protocol

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Value"
	"github.com/Salvionied/cbor/v2"

	"github.com/zenGate-Global/cardano-tx-platform/internal/intents"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

type rewardClaimParams struct {
	PolicyID  string
	AssetName string
}

// buildRewardClaim pays out a claimant's outstanding reward balance from
// the reward contract's own token stash. The claim draws from the contract
// address rather than the wallet, so SelectInputs is told to scan it too.
func buildRewardClaim(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p rewardClaimParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding reward_claim params: %w", err)
	}
	if common.StakeAddr == "" {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: reward_claim requires a stake address")
	}

	fp, err := txcodec.AssetFingerprint(p.PolicyID, p.AssetName)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: computing asset fingerprint: %w", err)
	}
	rows, err := d.Rewards.GetRows(ctx, common.StakeAddr, fp, contractID, tenantID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	if len(rows) == 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: no reward accrual for this stake address")
	}
	row := rows[0]

	earned, ok := new(big.Rat).SetString(row.TotalEarned)
	if !ok {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: corrupt total_earned on accrual %d", row.ID)
	}
	claimed, ok := new(big.Rat).SetString(row.TotalClaimed)
	if !ok {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: corrupt total_claimed on accrual %d", row.ID)
	}
	available := new(big.Rat).Sub(earned, claimed)
	if available.Sign() <= 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: nothing outstanding to claim")
	}
	if !available.IsInt() {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: fractional reward balance, contact support")
	}
	quantity := new(big.Int).Set(available.Num())
	if !quantity.IsInt64() {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: reward quantity overflows an int64 token amount")
	}

	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	nativeScript, err := hex.DecodeString(contract.Plutus)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: reward contract script does not hex-decode: %w", err)
	}
	paymentAddr, err := decodeAddr(row.PaymentAddr)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	policy, err := decodeHash28(p.PolicyID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	assetName, err := hex.DecodeString(p.AssetName)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: asset name does not hex-decode: %w", err)
	}

	step := &intents.RewardClaim{
		PaymentAddr:  paymentAddr,
		PolicyID:     policy,
		AssetName:    assetName,
		Quantity:     quantity,
		NativeScript: nativeScript,
	}
	need, err := valueOf(0, []assetParam{{PolicyID: p.PolicyID, AssetName: p.AssetName, Quantity: quantity.Int64()}})
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	return step, need, []string{contract.Address}, nil
}

type collectionMintParams struct {
	ProjectID int64
}

// buildCollectionMint mints a claimant's pre-aggregated reward of NFTs from
// an existing minting project, marking the mint_reward row processed so a
// retry can't double-mint it.
func buildCollectionMint(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p collectionMintParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding collection_mint params: %w", err)
	}
	if len(common.UsedAddresses) == 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: collection_mint requires a claimant address")
	}
	claimantAddrStr := common.UsedAddresses[0]

	project, err := d.Mints.GetProject(ctx, tenantID, p.ProjectID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	reward, err := d.Mints.GetReward(ctx, project.ID, claimantAddrStr)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	if reward.Processed || reward.Minted {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: mint reward already processed")
	}
	nfts, err := d.Mints.GetNfts(ctx, reward.NftIDs)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	if len(nfts) == 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: mint reward carries no nft rows")
	}

	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	nativeScript, err := hex.DecodeString(contract.Plutus)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: mint project script does not hex-decode: %w", err)
	}
	recipient, err := decodeAddr(claimantAddrStr)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}

	tokens := make([]intents.CollectionToken, len(nfts))
	for i, n := range nfts {
		assetName, err := hex.DecodeString(n.AssetName)
		if err != nil {
			return nil, Value.Value{}, nil, fmt.Errorf("protocol: nft %d asset name does not hex-decode: %w", n.ID, err)
		}
		tokens[i] = intents.CollectionToken{AssetName: assetName}
	}

	var feeAddr *Address.Address
	var feeLovelace int64
	locator, err := d.KeyLocators.Get(ctx, tenantID, contractID, version)
	if err == nil && locator.FeeWalletAddr.Valid && locator.Fee.Valid {
		if addr, aerr := decodeAddr(locator.FeeWalletAddr.String); aerr == nil {
			feeAddr = &addr
			feeLovelace = locator.Fee.Int64
		}
	}

	step := &intents.CollectionMint{
		Recipient:     recipient,
		NativeScript:  nativeScript,
		Tokens:        tokens,
		FeeWalletAddr: feeAddr,
		FeeLovelace:   feeLovelace,
	}
	if err := d.Mints.MarkProcessed(ctx, reward.ID, true, reward.Minted); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("marking mint reward processed: %w", err)
	}
	return step, Value.Value{Coin: feeLovelace}, nil, nil
}

type oneshotMintParams struct {
	AssetName string
	Quantity  int64
	Recipient string // empty uses the wallet's primary used address
}

// buildOneshotMint mints a single freshly named asset under a one-time-use
// policy straight to a recipient.
func buildOneshotMint(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p oneshotMintParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding oneshot_mint params: %w", err)
	}
	if p.Quantity <= 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: oneshot_mint requires a positive quantity")
	}
	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	nativeScript, err := hex.DecodeString(contract.Plutus)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: oneshot policy script does not hex-decode: %w", err)
	}
	assetName, err := hex.DecodeString(p.AssetName)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: asset name does not hex-decode: %w", err)
	}

	recipientStr := p.Recipient
	if recipientStr == "" {
		if len(common.UsedAddresses) == 0 {
			return nil, Value.Value{}, nil, fmt.Errorf("protocol: oneshot_mint requires a recipient")
		}
		recipientStr = common.UsedAddresses[0]
	}
	recipient, err := decodeAddr(recipientStr)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}

	step := &intents.OneshotMint{
		Recipient:    recipient,
		NativeScript: nativeScript,
		AssetName:    assetName,
		Quantity:     p.Quantity,
	}
	return step, Value.Value{Coin: 0}, nil, nil
}
