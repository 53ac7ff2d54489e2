// Package blocking groups records under cheap keys so pairwise scoring
// never has to compare the full cross product.
package blocking

import (
	"sort"

	"github.com/Ramsey-B/sage/pkg/models"
)

// Block key prefixes. Keys from different fields never collide because
// each is namespaced by its prefix.
const (
	keyNPI      = "NPI::"
	keyLicense  = "LIC::"
	keyLastPref = "LNP::"
	keyPhone4   = "PH4::"
	keyTaxonomy = "TAX::"
)

// Pair is an unordered candidate pair stored with A < B so each pair
// has exactly one identity in the set.
type Pair struct {
	A int
	B int
}

// Options tune candidate generation. The zero value reproduces plain
// OR blocking: any single shared key yields a candidate pair.
type Options struct {
	// MaxBlockSize skips blocks with more members than this before
	// pair expansion. 0 means unlimited. Common last-name prefixes can
	// otherwise cost O(k²) pairs.
	MaxBlockSize int

	// RequireMultipleKeys switches to conjunctive blocking: a pair is
	// a candidate only when it co-occurs under two or more distinct
	// block keys.
	RequireMultipleKeys bool
}

// Result carries the candidate set plus the block-level stats the
// pipeline logs.
type Result struct {
	Pairs         []Pair
	BlockCount    int
	SkippedBlocks []string
}

// Blocker builds key multimaps over a normalized record snapshot and
// expands them into candidate pairs.
type Blocker struct {
	opts Options
}

// NewBlocker creates a Blocker with the given options.
func NewBlocker(opts Options) *Blocker {
	return &Blocker{opts: opts}
}

// Candidates generates the de-duplicated candidate pair set for a
// snapshot. A record joins a block only when its key value is
// non-empty, so absent fields never make unrelated records collide.
// Output is sorted (A, then B) so downstream processing is
// order-independent.
func (bl *Blocker) Candidates(records []models.ProviderRecord) Result {
	blocks := make(map[string][]int)

	add := func(key string, i int) {
		blocks[key] = append(blocks[key], i)
	}

	for i, r := range records {
		n := r.Normalized
		if n.NPI != "" {
			add(keyNPI+n.NPI, i)
		}
		if n.License != "" && n.LicenseState != "" {
			add(keyLicense+n.LicenseState+"::"+n.License, i)
		}
		if n.LastNamePrefix != "" {
			add(keyLastPref+n.LastNamePrefix, i)
		}
		if n.PhoneLast4 != "" {
			add(keyPhone4+n.PhoneLast4, i)
		}
		if n.Taxonomy != "" {
			add(keyTaxonomy+n.Taxonomy, i)
		}
	}

	counts := make(map[Pair]int)
	var skipped []string

	for key, members := range blocks {
		if len(members) < 2 {
			continue
		}
		if bl.opts.MaxBlockSize > 0 && len(members) > bl.opts.MaxBlockSize {
			skipped = append(skipped, key)
			continue
		}
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				a, b := members[x], members[y]
				if a > b {
					a, b = b, a
				}
				counts[Pair{A: a, B: b}]++
			}
		}
	}

	minKeys := 1
	if bl.opts.RequireMultipleKeys {
		minKeys = 2
	}

	pairs := make([]Pair, 0, len(counts))
	for p, n := range counts {
		if n >= minKeys {
			pairs = append(pairs, p)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	sort.Strings(skipped)

	return Result{
		Pairs:         pairs,
		BlockCount:    len(blocks),
		SkippedBlocks: skipped,
	}
}
