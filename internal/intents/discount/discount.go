// Package discount computes the best discount a buyer's wallet qualifies
// for ahead of a marketplace or mint fee calculation: a tenant configures
// one or more discount rules per contract (a policy id, an optional
// fingerprint narrowing it to one asset, and a dot-separated path into that
// asset's mint metadata), and the buyer's held tokens are checked against
// every rule that applies.
package discount

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zenGate-Global/cardano-tx-platform/internal/systemdb"
	"github.com/zenGate-Global/cardano-tx-platform/internal/txcodec"
)

// HeldAsset is one policy/asset-name pair a wallet's UTxOs carry, the
// portion of a connector UTxO scan discount evaluation needs.
type HeldAsset struct {
	PolicyIDHex  string
	AssetNameHex string
}

// MetadataLookup resolves a held asset's CIP-25/721 mint metadata, keyed by
// its CIP-14 fingerprint, so Evaluate never has to know where metadata is
// actually stored (on-chain mint record, systemdb.Nft row, or an indexer).
type MetadataLookup func(ctx context.Context, fingerprint string) (map[string]interface{}, error)

// Evaluate filters rules down to the ones a held asset satisfies, walks
// each satisfied rule's metadata path to a numeric leaf, and returns the
// largest value found — zero if nothing in the wallet qualifies. It mirrors
// the "biggest single discount wins, discounts never stack" rule the
// reference implementation encodes by sorting and taking the last value.
func Evaluate(ctx context.Context, rules []systemdb.DiscountRule, held []HeldAsset, lookup MetadataLookup) (int64, error) {
	var best int64
	var seen bool

	for _, rule := range rules {
		for _, asset := range held {
			if asset.PolicyIDHex != rule.PolicyID {
				continue
			}
			fp, err := txcodec.AssetFingerprint(asset.PolicyIDHex, asset.AssetNameHex)
			if err != nil {
				return 0, fmt.Errorf("discount: computing fingerprint: %w", err)
			}
			if rule.Fingerprint.Valid && rule.Fingerprint.String != fp {
				continue
			}
			metadata, err := lookup(ctx, fp)
			if err != nil {
				continue // a token with no resolvable metadata contributes no discount
			}
			value, ok := walkPath(metadata, rule.MetadataPath)
			if !ok {
				continue
			}
			if !seen || value > best {
				best = value
				seen = true
			}
		}
	}
	return best, nil
}

// walkPath descends a dot-separated path into nested JSON-like maps and
// coerces whatever leaf it lands on into an integer, accepting a number, a
// numeric string, or the first element of an array — the same leniency the
// reference implementation applies since mint metadata is free-form JSON a
// tenant controls, not a schema this platform enforces.
func walkPath(metadata map[string]interface{}, path string) (int64, bool) {
	var keys []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			if i > start {
				keys = append(keys, path[start:i])
			}
			start = i + 1
		}
	}
	if len(keys) == 0 {
		return 0, false
	}

	var cur interface{} = metadata
	for _, key := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return 0, false
		}
		cur, ok = m[key]
		if !ok {
			return 0, false
		}
	}
	return coerceInt(cur)
}

func coerceInt(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case []interface{}:
		if len(x) == 0 {
			return 0, false
		}
		return coerceInt(x[0])
	default:
		return 0, false
	}
}
