package txcodec

import (
	"sort"

	"github.com/Salvionied/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// ScriptHash returns the blake2b-224 hash of a native or Plutus script, tagged
// with its script-language byte per the ledger spec (0 for native scripts,
// used throughout this platform since every contract address is a
// native-script multisig wallet).
func ScriptHash(script []byte) [28]byte {
	h, _ := blake2b.New(28, nil)
	h.Write(append([]byte{0x00}, script...))
	var out [28]byte
	copy(out[:], h.Sum(nil))
	return out
}

// scriptCredential encodes a stake_credential CDDL choice as [1, scripthash]
// — every credential this platform certifies is script-controlled, never a
// bare key hash.
func scriptCredential(scriptHash [28]byte) cbor.RawMessage {
	return RawArray(RawUint(1), RawBytes(scriptHash[:]))
}

// StakeRegistrationCert encodes a stake_registration certificate:
// [0, stake_credential].
func StakeRegistrationCert(scriptHash [28]byte) cbor.RawMessage {
	return RawArray(RawUint(0), scriptCredential(scriptHash))
}

// StakeDeregistrationCert encodes a stake_deregistration certificate:
// [1, stake_credential].
func StakeDeregistrationCert(scriptHash [28]byte) cbor.RawMessage {
	return RawArray(RawUint(1), scriptCredential(scriptHash))
}

// StakeDelegationCert encodes a stake_delegation certificate:
// [2, stake_credential, pool_keyhash].
func StakeDelegationCert(scriptHash [28]byte, poolKeyHash [28]byte) cbor.RawMessage {
	return RawArray(RawUint(2), scriptCredential(scriptHash), RawBytes(poolKeyHash[:]))
}

// Certificates wraps one or more encoded certificates into the body's
// certificates field (key 4): a definite-length array of certificates.
func Certificates(certs ...cbor.RawMessage) cbor.RawMessage {
	return RawArraySlice(certs)
}

// MintEntry is one policy/asset-name/signed-quantity triple contributing to
// a transaction's mint field. Quantity is negative for a burn.
type MintEntry struct {
	PolicyID  [28]byte
	AssetName []byte
	Quantity  int64
}

// Mint encodes the body's mint field (key 9):
// { policy_id => { asset_name => int64 } }, grouped by policy and sorted by
// byte value within each level so the encoding is deterministic across runs.
func Mint(entries []MintEntry) cbor.RawMessage {
	byPolicy := map[[28]byte][]MintEntry{}
	var policies [][28]byte
	for _, e := range entries {
		if _, ok := byPolicy[e.PolicyID]; !ok {
			policies = append(policies, e.PolicyID)
		}
		byPolicy[e.PolicyID] = append(byPolicy[e.PolicyID], e)
	}
	sort.Slice(policies, func(i, j int) bool {
		return string(policies[i][:]) < string(policies[j][:])
	})

	outerPairs := make([]RawPair, 0, len(policies))
	for _, pid := range policies {
		assets := byPolicy[pid]
		sort.Slice(assets, func(i, j int) bool {
			return string(assets[i].AssetName) < string(assets[j].AssetName)
		})
		innerPairs := make([]RawPair, 0, len(assets))
		for _, a := range assets {
			innerPairs = append(innerPairs, RawPair{
				Key:   RawBytes(a.AssetName),
				Value: RawInt(a.Quantity),
			})
		}
		outerPairs = append(outerPairs, RawPair{
			Key:   RawBytes(pid[:]),
			Value: RawMap(innerPairs...),
		})
	}
	return RawMap(outerPairs...)
}

// NativeScripts wraps one or more raw native-script encodings into the
// witness set's native_scripts field (key 1).
func NativeScripts(scripts ...[]byte) cbor.RawMessage {
	items := make([]cbor.RawMessage, len(scripts))
	for i, s := range scripts {
		items[i] = cbor.RawMessage(s)
	}
	return RawArraySlice(items)
}
