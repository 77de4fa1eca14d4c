package txbuilder

import (
	"context"
	"testing"

	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Amount"
	"github.com/Salvionied/apollo/serialization/Asset"
	"github.com/Salvionied/apollo/serialization/AssetName"
	"github.com/Salvionied/apollo/serialization/MultiAsset"
	"github.com/Salvionied/apollo/serialization/Policy"
	"github.com/Salvionied/apollo/serialization/TransactionInput"
	"github.com/Salvionied/apollo/serialization/TransactionOutput"
	"github.com/Salvionied/apollo/serialization/UTxO"
	"github.com/Salvionied/apollo/serialization/Value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/cardano-tx-platform/internal/store"
)

func adaOnlyUTxO(t *testing.T, txHashByte byte, index uint32, lovelace int64) UTxO.UTxO {
	t.Helper()
	return UTxO.UTxO{
		Input: TransactionInput.TransactionInput{
			TransactionId: []byte{txHashByte, 0, 0, 0},
			Index:         index,
		},
		Output: TransactionOutput.TransactionOutput{
			IsPostAlonzo: false,
			PreAlonzo: TransactionOutput.TransactionOutputShelley{
				Address: Address.Address{},
				Amount:  Value.Value{Coin: lovelace},
			},
		},
	}
}

func assetUTxO(t *testing.T, txHashByte byte, index uint32, lovelace int64, policyHex, assetNameHex string, qty int64) UTxO.UTxO {
	t.Helper()
	policy := Policy.PolicyId{Value: policyHex}
	name := AssetName.NewAssetNameFromHexString(assetNameHex)
	assets := MultiAsset.MultiAsset[int64]{policy: Asset.Asset[int64]{*name: qty}}
	return UTxO.UTxO{
		Input: TransactionInput.TransactionInput{
			TransactionId: []byte{txHashByte, 0, 0, 0},
			Index:         index,
		},
		Output: TransactionOutput.TransactionOutput{
			IsPostAlonzo: false,
			PreAlonzo: TransactionOutput.TransactionOutputShelley{
				Address: Address.Address{},
				Amount:  Value.Value{Am: Amount.Amount{Coin: lovelace, Value: assets}, HasAssets: true},
			},
		},
	}
}

func needValue(t *testing.T, coin int64, policyHex, assetNameHex string, qty int64) Value.Value {
	t.Helper()
	if policyHex == "" {
		return Value.Value{Coin: coin}
	}
	policy := Policy.PolicyId{Value: policyHex}
	name := AssetName.NewAssetNameFromHexString(assetNameHex)
	assets := MultiAsset.MultiAsset[int64]{policy: Asset.Asset[int64]{*name: qty}}
	return Value.Value{Am: Amount.Amount{Coin: coin, Value: assets}, HasAssets: true}
}

func TestSelectInputsAdaOnlyPicksSmallestSufficientUTxO(t *testing.T) {
	available := []UTxO.UTxO{
		adaOnlyUTxO(t, 1, 0, 1_000_000),
		adaOnlyUTxO(t, 2, 0, 3_000_000),
		adaOnlyUTxO(t, 3, 0, 10_000_000),
	}
	selected, err := SelectInputs(context.Background(), nil, available, Value.Value{Coin: 5_000_000})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, int64(10_000_000), selected[0].Output.GetAmount().GetCoin())
}

func TestSelectInputsPrefersAssetBearingUTxOFirst(t *testing.T) {
	policy := "aa00000000000000000000000000000000000000000000000000000000"
	name := "74657374"
	available := []UTxO.UTxO{
		adaOnlyUTxO(t, 1, 0, 50_000_000),
		assetUTxO(t, 2, 0, 2_000_000, policy, name, 5),
	}
	need := needValue(t, 1_000_000, policy, name, 5)
	selected, err := SelectInputs(context.Background(), nil, available, need)
	require.NoError(t, err)

	var foundAsset bool
	for _, u := range selected {
		if len(u.Output.GetAmount().GetAssets()) > 0 {
			foundAsset = true
		}
	}
	assert.True(t, foundAsset, "expected the asset-bearing utxo to be selected")
}

func TestSelectInputsInsufficientFunds(t *testing.T) {
	available := []UTxO.UTxO{adaOnlyUTxO(t, 1, 0, 1_000_000)}
	_, err := SelectInputs(context.Background(), nil, available, Value.Value{Coin: 50_000_000})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSelectInputsSkipsUsedOutpoints(t *testing.T) {
	used := store.NewMemoryStore()
	u1 := adaOnlyUTxO(t, 9, 0, 10_000_000)
	require.NoError(t, used.AddMany(context.Background(), []store.Outpoint{
		{TxHash: txHashHex(u1), Index: 0},
	}))
	available := []UTxO.UTxO{u1, adaOnlyUTxO(t, 8, 0, 10_000_000)}

	selected, err := SelectInputs(context.Background(), used, available, Value.Value{Coin: 5_000_000})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, byte(8), selected[0].Input.TransactionId[0])
}
