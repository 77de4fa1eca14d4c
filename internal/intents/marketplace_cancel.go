package intents

import (
	"context"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/UTxO"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txbuilder"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// MarketplaceCancel withdraws a previously listed NFT back to its seller by
// spending the listing UTxO with the cancel redeemer the validator accepts
// only when the transaction is signed by the address the listing's datum
// names as seller.
type MarketplaceCancel struct {
	ListingUTxO   UTxO.UTxO
	ScriptRefUTxO UTxO.UTxO
}

var _ txbuilder.Step = (*MarketplaceCancel)(nil)

func (c *MarketplaceCancel) Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (int, txbuilder.ExUnits, error) {
	redeemer, err := txcodec.BuildPlutusConstr(1) // Cancel has no fields
	if err != nil {
		return 0, txbuilder.ExUnits{}, err
	}
	txb.AddReferenceInput(c.ScriptRefUTxO)
	txb.CollectFrom(c.ListingUTxO, *redeemer)
	return 1, txbuilder.ExUnits{}, nil
}
