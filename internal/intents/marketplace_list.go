package intents

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// minListingOutputAda is the floor ada a marketplace listing UTxO must
// carry alongside its NFT and inline datum.
const minListingOutputAda = 2_000_000

// MarketplaceList sends one NFT to the marketplace contract address with an
// inline datum recording the seller's payment-key hash, the asking price,
// and an optional royalty cut, so a later buy or cancel can read the
// listing's terms straight off the UTxO it spends.
type MarketplaceList struct {
	ContractAddr   Address.Address
	PolicyID       [28]byte
	AssetName      []byte
	SellerPKH      [28]byte
	PriceLovelace  int64
	RoyaltyPKH     []byte // empty if the listing carries no royalty
	RoyaltyRateBps int64
}

var _ txbuilder.Step = (*MarketplaceList)(nil)

func (l *MarketplaceList) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if l.PriceLovelace <= 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: marketplace listing requires a positive price")
	}
	datum, err := txcodec.BuildPlutusConstr(0,
		txcodec.PlutusBytes(l.SellerPKH[:]),
		txcodec.PlutusInt(l.PriceLovelace),
		txcodec.PlutusBytes(l.RoyaltyPKH),
		txcodec.PlutusInt(l.RoyaltyRateBps),
	)
	if err != nil {
		return 0, txbuilder.ExUnits{}, err
	}
	unit := apollo.NewUnit(hex.EncodeToString(l.PolicyID[:]), hex.EncodeToString(l.AssetName), 1)
	txb.PayToContract(l.ContractAddr, datum, minListingOutputAda, true, unit)
	return 1, txbuilder.ExUnits{}, nil
}
