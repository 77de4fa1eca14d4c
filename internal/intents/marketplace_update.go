package intents

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/UTxO"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// MarketplaceUpdate re-lists an already-listed NFT at new terms in one
// transaction: it spends the old listing UTxO with the update redeemer and
// immediately pays the same NFT back to the contract address under a fresh
// datum, rather than requiring the seller to cancel and list separately.
type MarketplaceUpdate struct {
	ListingUTxO    UTxO.UTxO
	ScriptRefUTxO  UTxO.UTxO
	ContractAddr   Address.Address
	PolicyID       [28]byte
	AssetName      []byte
	SellerPKH      [28]byte
	NewPrice       int64
	RoyaltyPKH     []byte
	RoyaltyRateBps int64
}

var _ txbuilder.Step = (*MarketplaceUpdate)(nil)

func (u *MarketplaceUpdate) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if u.NewPrice <= 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: marketplace update requires a positive price")
	}
	redeemer, err := txcodec.BuildPlutusConstr(2) // Update has no fields
	if err != nil {
		return 0, txbuilder.ExUnits{}, err
	}
	datum, err := txcodec.BuildPlutusConstr(0,
		txcodec.PlutusBytes(u.SellerPKH[:]),
		txcodec.PlutusInt(u.NewPrice),
		txcodec.PlutusBytes(u.RoyaltyPKH),
		txcodec.PlutusInt(u.RoyaltyRateBps),
	)
	if err != nil {
		return 0, txbuilder.ExUnits{}, err
	}

	txb.AddReferenceInput(u.ScriptRefUTxO)
	txb.CollectFrom(u.ListingUTxO, *redeemer)
	unit := apollo.NewUnit(hex.EncodeToString(u.PolicyID[:]), hex.EncodeToString(u.AssetName), 1)
	txb.PayToContract(u.ContractAddr, datum, minListingOutputAda, true, unit)
	return 1, txbuilder.ExUnits{}, nil
}
