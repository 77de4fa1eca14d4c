package intents

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/UTxO"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// MarketplaceBuy spends a listing UTxO with the buy redeemer, pays the
// asking price to the seller, pays any royalty cut to the royalty address,
// and lets the buyer's own change address pick up the NFT — the validator
// enforces the seller and royalty payouts exist and meet the listing's
// datum; this Step only needs to mirror them as outputs.
type MarketplaceBuy struct {
	ListingUTxO     UTxO.UTxO
	ScriptRefUTxO   UTxO.UTxO
	SellerAddr      Address.Address
	PriceLovelace   int64
	RoyaltyAddr     *Address.Address
	RoyaltyLovelace int64
}

var _ txbuilder.Step = (*MarketplaceBuy)(nil)

func (b *MarketplaceBuy) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	if b.PriceLovelace <= 0 {
		return 0, txbuilder.ExUnits{}, fmt.Errorf("intents: marketplace buy requires a positive price")
	}
	redeemer, err := txcodec.BuildPlutusConstr(0) // Buy has no fields
	if err != nil {
		return 0, txbuilder.ExUnits{}, err
	}
	txb.AddReferenceInput(b.ScriptRefUTxO)
	txb.CollectFrom(b.ListingUTxO, *redeemer)
	txb.PayToAddress(b.SellerAddr, int(b.PriceLovelace))
	if b.RoyaltyAddr != nil && b.RoyaltyLovelace > 0 {
		txb.PayToAddress(*b.RoyaltyAddr, int(b.RoyaltyLovelace))
	}
	return 1, txbuilder.ExUnits{}, nil
}
