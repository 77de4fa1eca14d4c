package txcodec

import "github.com/Salvionied/cbor/v2"

// rawcbor.go builds CBOR fragments by hand for the few ledger shapes apollo's
// fluent builder has no call for: certificates, the mint field, and
// native-script arrays. Handlers assemble these with the helpers below and
// hand the result to PatchBody/PatchWitnessSet.

func encodeHead(major byte, n uint64) []byte {
	hi := major << 5
	switch {
	case n < 24:
		return []byte{hi | byte(n)}
	case n < 1<<8:
		return []byte{hi | 24, byte(n)}
	case n < 1<<16:
		return []byte{hi | 25, byte(n >> 8), byte(n)}
	case n < 1<<32:
		return []byte{hi | 26, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		b := make([]byte, 9)
		b[0] = hi | 27
		for i := 0; i < 8; i++ {
			b[8-i] = byte(n >> (8 * i))
		}
		return b
	}
}

// RawUint encodes an unsigned integer (major type 0).
func RawUint(n uint64) cbor.RawMessage { return cbor.RawMessage(encodeHead(0, n)) }

// RawInt encodes a signed integer, using major type 1 (negative) below zero.
func RawInt(n int64) cbor.RawMessage {
	if n >= 0 {
		return RawUint(uint64(n))
	}
	return cbor.RawMessage(encodeHead(1, uint64(-n)-1))
}

// RawBytes encodes a byte string (major type 2).
func RawBytes(b []byte) cbor.RawMessage {
	out := append(encodeHead(2, uint64(len(b))), b...)
	return cbor.RawMessage(out)
}

// RawArray encodes a definite-length array (major type 4) of already-encoded
// elements.
func RawArray(items ...cbor.RawMessage) cbor.RawMessage {
	out := encodeHead(4, uint64(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return cbor.RawMessage(out)
}

// RawArraySlice is RawArray over a slice instead of variadic arguments.
func RawArraySlice(items []cbor.RawMessage) cbor.RawMessage { return RawArray(items...) }

// RawPair is one key/value entry for RawMap.
type RawPair struct {
	Key, Value cbor.RawMessage
}

// RawMap encodes a definite-length map (major type 5) of already-encoded
// key/value pairs, in the order given — callers that need canonical byte-
// string key ordering are responsible for sorting before calling this.
func RawMap(pairs ...RawPair) cbor.RawMessage {
	out := encodeHead(5, uint64(len(pairs)))
	for _, p := range pairs {
		out = append(out, p.Key...)
		out = append(out, p.Value...)
	}
	return cbor.RawMessage(out)
}
