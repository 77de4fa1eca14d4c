// Package txbuilder implements the generic balance/fee-iteration core every
// intent handler drives: a handler supplies a Step that knows how to load
// apollo's transaction builder with one intent's inputs, outputs, and
// redeemers for a given candidate fee, and Build repeatedly invokes it until
// the fee and the witness count it implies converge.
package txbuilder

import (
	"context"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/serialization/UTxO"
)

// ProtocolParams carries the subset of on-chain protocol parameters the fee
// formula and min-utxo/max-value-size checks need.
type ProtocolParams struct {
	MinFeeA          uint64
	MinFeeB          uint64
	CoinsPerUTXOByte uint64
	PriceMem         float64
	PriceStep        float64
	MaxTxSize        uint64
	MaxValueSize     uint64
	PoolDeposit      uint64
	KeyDeposit       uint64
}

// ExUnits is the execution-unit budget a Step reports for its Plutus
// redeemers, if any; zero for plain payment/certificate transactions.
type ExUnits struct {
	Mem   uint64
	Steps uint64
}

// computeFee applies the linear fee formula: a·size + b, plus the
// script-execution surcharge when the transaction carries redeemers.
func computeFee(pp ProtocolParams, size int, exec ExUnits) uint64 {
	fee := pp.MinFeeA*uint64(size) + pp.MinFeeB
	fee += uint64(pp.PriceMem*float64(exec.Mem)) + uint64(pp.PriceStep*float64(exec.Steps))
	return fee
}

// Step is the capability an intent handler supplies to Build: given the
// apollo builder already seeded with the change address, loaded UTxOs, and
// TTL, add this intent's collected inputs, outputs, certificates, and mint,
// and report how many vkey witnesses the result will need and what
// execution-unit budget its redeemers consume. dryRun is true only on the
// first pass: handlers that sign or decrypt key material as part of
// assembling their step should skip that work when dryRun is set, since a
// dry-run transaction is discarded as soon as its size is measured.
type Step interface {
	Apply(ctx context.Context, txb *apollo.Apollo, fee uint64, dryRun bool) (vkeyCount int, exec ExUnits, err error)
}

// PostProcess is implemented by a Step that also needs to attach fields
// apollo's fluent API does not expose — certificates and a mint value —
// once the builder has produced its best-effort transaction. Steps that
// only move payments need not implement it.
type PostProcess interface {
	Certificates() []byte // CBOR-encoded certificate array, nil if none
	Mint() []byte         // CBOR-encoded mint map, nil if none
	NativeScripts() []byte
}

// BuildOutput is what Build returns once the fee has converged: the final
// body/witness/aux bytes, the inputs actually spent, and the vkey count
// finalize must match.
type BuildOutput struct {
	TxBody     []byte
	TxWitness  []byte
	TxAux      []byte
	SelectedIn []UTxO.UTxO
	Fee        uint64
	VkeyCount  int
}

// ErrFeeNonConvergent is returned when three fee-iteration passes still
// disagree on vkey count or serialized size.
var ErrFeeNonConvergent = fmt.Errorf("txbuilder: fee did not converge after three passes")

// dummyFeeBase is the placeholder fee the first pass assumes, matched
// against real-world Cardano transaction fees closely enough that the
// first CompleteExact call never underflows a required min-utxo output.
const dummyFeeBase = 2_000_000

// maxPasses bounds the fee-fixed-point loop: pass 1 is always a dry run,
// pass 2 re-runs with the measured fee, and pass 3 is allowed only if pass 2
// still disagreed with pass 1 on vkey count or size.
const maxPasses = 3
