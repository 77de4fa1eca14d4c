package protocol

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/Salvionied/apollo/serialization/Value"
	"github.com/Salvionied/cbor/v2"

	"github.com/zenGate-Global/cardano-tx-platform/internal/intents"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
)

// listingReserveAda is the floor ada a marketplace listing or registry
// output must carry, mirrored from the intents package's own constants
// since those are unexported build-site details of the Step, not the
// dispatcher.
const listingReserveAda = 2_000_000

type marketplaceListParams struct {
	PolicyID       string
	AssetName      string
	SellerPKH      string
	PriceLovelace  int64
	RoyaltyPKH     string
	RoyaltyRateBps int64
}

// buildMarketplaceList lists one NFT the caller's wallet currently holds at
// the tenant's marketplace contract address; SelectInputs must find that
// exact unit among the wallet's used addresses.
func buildMarketplaceList(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p marketplaceListParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding marketplace_list params: %w", err)
	}
	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	contractAddr, err := decodeAddr(contract.Address)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	policy, err := decodeHash28(p.PolicyID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	sellerPKH, err := decodeHash28(p.SellerPKH)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	assetName, err := hex.DecodeString(p.AssetName)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: asset name does not hex-decode: %w", err)
	}
	var royaltyPKH []byte
	if p.RoyaltyPKH != "" {
		royaltyPKH, err = hex.DecodeString(p.RoyaltyPKH)
		if err != nil {
			return nil, Value.Value{}, nil, fmt.Errorf("protocol: royalty pkh does not hex-decode: %w", err)
		}
	}

	step := &intents.MarketplaceList{
		ContractAddr:   contractAddr,
		PolicyID:       policy,
		AssetName:      assetName,
		SellerPKH:      sellerPKH,
		PriceLovelace:  p.PriceLovelace,
		RoyaltyPKH:     royaltyPKH,
		RoyaltyRateBps: p.RoyaltyRateBps,
	}
	need, err := valueOf(listingReserveAda, []assetParam{{PolicyID: p.PolicyID, AssetName: p.AssetName, Quantity: 1}})
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	return step, need, nil, nil
}

type listingRefParams struct {
	ListingTxHash   string
	ListingIndex    uint32
	ScriptRefTxHash string
	ScriptRefIndex  uint32
}

// buildMarketplaceCancel spends an existing listing back to its seller. The
// wallet only needs to cover the fee; the listing UTxO itself carries the
// NFT and its locked ada back out.
func buildMarketplaceCancel(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p listingRefParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding marketplace_cancel params: %w", err)
	}
	listing, err := fetchUTxO(ctx, d.Provider, p.ListingTxHash, p.ListingIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	scriptRef, err := fetchUTxO(ctx, d.Provider, p.ScriptRefTxHash, p.ScriptRefIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	step := &intents.MarketplaceCancel{ListingUTxO: listing, ScriptRefUTxO: scriptRef}
	return step, Value.Value{Coin: 0}, nil, nil
}

type marketplaceBuyParams struct {
	listingRefParams
	SellerAddr      string
	PriceLovelace   int64
	RoyaltyAddr     string
	RoyaltyLovelace int64
}

// buildMarketplaceBuy spends a listing with the buy redeemer; the wallet
// must fund the price plus any royalty cut, and receives the NFT as
// leftover balance apollo routes to the change address.
func buildMarketplaceBuy(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p marketplaceBuyParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding marketplace_buy params: %w", err)
	}
	if p.PriceLovelace <= 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: marketplace buy requires a positive price")
	}
	listing, err := fetchUTxO(ctx, d.Provider, p.ListingTxHash, p.ListingIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	scriptRef, err := fetchUTxO(ctx, d.Provider, p.ScriptRefTxHash, p.ScriptRefIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	sellerAddr, err := decodeAddr(p.SellerAddr)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}

	step := &intents.MarketplaceBuy{
		ListingUTxO:     listing,
		ScriptRefUTxO:   scriptRef,
		SellerAddr:      sellerAddr,
		PriceLovelace:   p.PriceLovelace,
		RoyaltyLovelace: p.RoyaltyLovelace,
	}
	total := p.PriceLovelace
	if p.RoyaltyAddr != "" && p.RoyaltyLovelace > 0 {
		royaltyAddr, err := decodeAddr(p.RoyaltyAddr)
		if err != nil {
			return nil, Value.Value{}, nil, err
		}
		step.RoyaltyAddr = &royaltyAddr
		total += p.RoyaltyLovelace
	}
	return step, Value.Value{Coin: total}, nil, nil
}

type marketplaceUpdateParams struct {
	listingRefParams
	PolicyID       string
	AssetName      string
	SellerPKH      string
	NewPrice       int64
	RoyaltyPKH     string
	RoyaltyRateBps int64
}

// buildMarketplaceUpdate re-lists an existing listing at new terms in one
// step. The NFT and its locked ada return to the contract address inside
// the same transaction that spends the old listing; the wallet covers only
// the fee.
func buildMarketplaceUpdate(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p marketplaceUpdateParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding marketplace_update params: %w", err)
	}
	if p.NewPrice <= 0 {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: marketplace update requires a positive price")
	}
	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	contractAddr, err := decodeAddr(contract.Address)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	listing, err := fetchUTxO(ctx, d.Provider, p.ListingTxHash, p.ListingIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	scriptRef, err := fetchUTxO(ctx, d.Provider, p.ScriptRefTxHash, p.ScriptRefIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	policy, err := decodeHash28(p.PolicyID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	sellerPKH, err := decodeHash28(p.SellerPKH)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	assetName, err := hex.DecodeString(p.AssetName)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: asset name does not hex-decode: %w", err)
	}
	var royaltyPKH []byte
	if p.RoyaltyPKH != "" {
		royaltyPKH, err = hex.DecodeString(p.RoyaltyPKH)
		if err != nil {
			return nil, Value.Value{}, nil, fmt.Errorf("protocol: royalty pkh does not hex-decode: %w", err)
		}
	}

	step := &intents.MarketplaceUpdate{
		ListingUTxO:    listing,
		ScriptRefUTxO:  scriptRef,
		ContractAddr:   contractAddr,
		PolicyID:       policy,
		AssetName:      assetName,
		SellerPKH:      sellerPKH,
		NewPrice:       p.NewPrice,
		RoyaltyPKH:     royaltyPKH,
		RoyaltyRateBps: p.RoyaltyRateBps,
	}
	return step, Value.Value{Coin: 0}, nil, nil
}

type validatorRegisterParams struct {
	AssetName   string
	OperatorPKH string
	NetworkAddr []byte
}

// buildValidatorRegister mints a fresh identity NFT under the registry
// contract's fixed policy and locks it with the operator's registration
// datum.
func buildValidatorRegister(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p validatorRegisterParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding validator_register params: %w", err)
	}
	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	registryAddr, err := decodeAddr(contract.Address)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	nativeScript, err := hex.DecodeString(contract.Plutus)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: registry script does not hex-decode: %w", err)
	}
	assetName, err := hex.DecodeString(p.AssetName)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: asset name does not hex-decode: %w", err)
	}
	operatorPKH, err := decodeHash28(p.OperatorPKH)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}

	step := &intents.ValidatorRegister{
		RegistryAddr: registryAddr,
		NativeScript: nativeScript,
		AssetName:    assetName,
		OperatorPKH:  operatorPKH,
		NetworkAddr:  p.NetworkAddr,
	}
	return step, Value.Value{Coin: 0}, nil, nil
}

type validatorUnregisterParams struct {
	listingRefParams
	AssetName string
}

// buildValidatorUnregister spends a registry slot and burns its identity
// NFT, retiring a validator.
func buildValidatorUnregister(ctx context.Context, d *Dispatcher, tenantID, contractID int64, version float32, common CommonRequest, params []byte) (txbuilder.Step, Value.Value, []string, error) {
	var p validatorUnregisterParams
	if err := cbor.Unmarshal(params, &p); err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("decoding validator_unregister params: %w", err)
	}
	contract, err := d.Contracts.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	nativeScript, err := hex.DecodeString(contract.Plutus)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: registry script does not hex-decode: %w", err)
	}
	registryUTxO, err := fetchUTxO(ctx, d.Provider, p.ListingTxHash, p.ListingIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	scriptRef, err := fetchUTxO(ctx, d.Provider, p.ScriptRefTxHash, p.ScriptRefIndex)
	if err != nil {
		return nil, Value.Value{}, nil, err
	}
	assetName, err := hex.DecodeString(p.AssetName)
	if err != nil {
		return nil, Value.Value{}, nil, fmt.Errorf("protocol: asset name does not hex-decode: %w", err)
	}

	step := &intents.ValidatorUnregister{
		RegistryUTxO:  registryUTxO,
		ScriptRefUTxO: scriptRef,
		NativeScript:  nativeScript,
		AssetName:     assetName,
	}
	return step, Value.Value{Coin: 0}, nil, nil
}
