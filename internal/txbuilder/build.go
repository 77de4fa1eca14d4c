package txbuilder

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/UTxO"

	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// vkeyWitnessBytes is the fixed CBOR size of one [vkey(32), signature(64)]
// witness: a 1-byte array header plus two length-prefixed byte strings.
const vkeyWitnessBytes = 101

// measurement is what one pass through a Step yields: the values the
// convergence check in Build compares across passes.
type measurement struct {
	vkeyCount int
	size      int
	exec      ExUnits
	output    BuildOutput
}

// Build runs the two-pass (at most three-pass) fee-fixed-point loop: it
// seeds an apollo transaction builder with the wallet's change address and
// the caller's already-selected spendable UTxOs (see SelectInputs), lets
// step load its own outputs/certificates/redeemers for a candidate fee,
// measures the resulting transaction's size plus the bytes its eventual
// vkey witnesses will add, and recomputes the fee from pp until two
// consecutive passes agree on both the witness count and the size.
func Build(
	ctx context.Context,
	pp ProtocolParams,
	selected []UTxO.UTxO,
	changeAddress Address.Address,
	currentSlot uint64,
	ttlSlots uint64,
	step Step,
) (*BuildOutput, error) {
	sorted := apollo.SortInputs(selected)

	pass1, err := runPass(ctx, pp, sorted, changeAddress, currentSlot, ttlSlots, step, dummyFeeBase, true)
	if err != nil {
		return nil, err
	}

	fee2 := computeFee(pp, pass1.size, pass1.exec)
	pass2, err := runPass(ctx, pp, sorted, changeAddress, currentSlot, ttlSlots, step, fee2, false)
	if err != nil {
		return nil, err
	}
	if converged(pass1, pass2) {
		pass2.output.Fee = fee2
		return &pass2.output, nil
	}

	fee3 := computeFee(pp, pass2.size, pass2.exec)
	pass3, err := runPass(ctx, pp, sorted, changeAddress, currentSlot, ttlSlots, step, fee3, false)
	if err != nil {
		return nil, err
	}
	if converged(pass2, pass3) {
		pass3.output.Fee = fee3
		return &pass3.output, nil
	}
	return nil, ErrFeeNonConvergent
}

func converged(a, b measurement) bool {
	return a.vkeyCount == b.vkeyCount && a.size == b.size
}

func runPass(
	ctx context.Context,
	pp ProtocolParams,
	selected []UTxO.UTxO,
	changeAddress Address.Address,
	currentSlot uint64,
	ttlSlots uint64,
	step Step,
	fee uint64,
	dryRun bool,
) (measurement, error) {
	backend := apollo.NewEmptyBackend()
	txb := apollo.New(&backend).
		AddInputAddress(changeAddress).
		AddLoadedUTxOs(selected...).
		SetTtl(int64(currentSlot + ttlSlots)).
		DisableExecutionUnitsEstimation()

	vkeyCount, exec, err := step.Apply(ctx, txb, fee, dryRun)
	if err != nil {
		return measurement{}, fmt.Errorf("txbuilder: assembling step: %w", err)
	}

	built, err := txb.CompleteExact(int(fee))
	if err != nil {
		return measurement{}, fmt.Errorf("txbuilder: completing transaction at fee %d: %w", fee, err)
	}

	raw, err := built.GetTx().Bytes()
	if err != nil {
		return measurement{}, fmt.Errorf("txbuilder: serializing transaction: %w", err)
	}

	body, witness, aux, err := txcodec.SplitTransaction(raw)
	if err != nil {
		return measurement{}, err
	}

	if post, ok := step.(PostProcess); ok {
		if certs, mint := post.Certificates(), post.Mint(); len(certs) > 0 || len(mint) > 0 {
			body, err = txcodec.PatchBody(body, certs, mint)
			if err != nil {
				return measurement{}, err
			}
		}
		if scripts := post.NativeScripts(); len(scripts) > 0 {
			witness, err = txcodec.PatchWitnessSet(witness, scripts)
			if err != nil {
				return measurement{}, err
			}
		}
	}

	size := len(body) + len(witness) + len(aux) + vkeyCount*vkeyWitnessBytes

	return measurement{
		vkeyCount: vkeyCount,
		size:      size,
		exec:      exec,
		output: BuildOutput{
			TxBody:     body,
			TxWitness:  witness,
			TxAux:      aux,
			SelectedIn: selected,
			VkeyCount:  vkeyCount,
		},
	}, nil
}
