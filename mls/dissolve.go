// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package mls

import (
	"sort"

	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/types/block"
)

// DissolvedChain maps a superblock level to the ordered blocks the
// dissolution kept at that level. It is a transient structure produced
// by Dissolve and consumed by Compress and Compare; callers inspecting
// it for reporting must treat the slices as read-only.
type DissolvedChain map[int]block.Chain

// Levels returns the present levels in descending order.
func (d DissolvedChain) Levels() []int {
	levels := make([]int, 0, len(d))
	for mu := range d {
		levels = append(levels, mu)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	return levels
}

// TopLevel returns the highest present level, 0 for an empty
// dissolution.
func (d DissolvedChain) TopLevel() int {
	max := 0
	for mu := range d {
		if mu > max {
			max = mu
		}
	}
	return max
}

// MinLevel returns the lowest present level. The lowest level carries
// the richest block set, so it holds the most recent shared material
// when two dissolutions are intersected.
func (d DissolvedChain) MinLevel() int {
	min := 0
	first := true
	for mu := range d {
		if first || mu < min {
			min = mu
			first = false
		}
	}
	return min
}

// Flatten reassembles the dissolved structure into a single chain:
// every block once, deduplicated by height, ascending by height.
// The result does not depend on level iteration order because height
// is a unique key within a chain.
func (d DissolvedChain) Flatten() block.Chain {
	seen := make(map[int32]struct{})
	var flat block.Chain
	for _, mu := range d.Levels() {
		for _, b := range d[mu] {
			if _, ok := seen[b.Height()]; ok {
				continue
			}
			seen[b.Height()] = struct{}{}
			flat = append(flat, b)
		}
	}
	return flat.SortByHeight()
}

// Dissolve splits the chain into a compressible prefix and an unstable
// remainder of the last k+chi blocks, then partitions the prefix into
// per-level block sets.
//
// The top level is the highest level still holding at least 2K blocks;
// it keeps all of its blocks. Every level below keeps the later of its
// last 2K blocks or everything from the anchor onward, where the
// anchor is the K-th-from-last block of the level directly above.
// Keeping the anchor guarantees each level overlaps the one above it,
// which is what lets two diverged proofs be compared level by level
// without full history.
//
// Returns the dissolved structure, the top level and the remainder.
// The inputs are never mutated; the remainder is fresh storage.
func Dissolve(chain block.Chain, params Params) (DissolvedChain, int, block.Chain, error) {
	if err := params.Validate(); err != nil {
		return nil, 0, nil, err
	}

	split := len(chain) - params.suffixLen()
	if split < 0 {
		split = 0
	}
	compressible := chain[:split]
	remainder := chain[split:].Clone()

	dissolved := make(DissolvedChain)
	if len(compressible) < 2*params.K {
		dissolved[0] = compressible.Clone()
		return dissolved, 0, remainder, nil
	}

	topLevel := ProofLevel(compressible, params.K)
	dissolved[topLevel] = compressible.FilterByLevel(topLevel)

	for mu := topLevel - 1; mu >= 0; mu-- {
		upper := compressible.FilterByLevel(mu + 1)
		if len(upper) < params.K {
			return nil, 0, nil, errors.Wrapf(ErrInvariant,
				"level %d holds %d blocks, need at least K=%d for the anchor",
				mu+1, len(upper), params.K)
		}
		anchor := upper[len(upper)-params.K]

		levelSet := compressible.FilterByLevel(mu)
		anchorIndex := levelSet.IndexByHeight(anchor.Height())
		if anchorIndex < 0 {
			return nil, 0, nil, errors.Wrapf(ErrInvariant,
				"anchor block at height %d is missing from level %d", anchor.Height(), mu)
		}

		// levelSet is a superset of the top level set, so it holds at
		// least 2K blocks and start cannot go negative.
		start := len(levelSet) - 2*params.K
		if anchorIndex < start {
			start = anchorIndex
		}
		dissolved[mu] = levelSet[start:]
	}

	return dissolved, topLevel, remainder, nil
}

// ProofLevel returns the highest level holding at least 2K blocks, or
// 0 when no level qualifies (including the empty chain). A block of
// level l counts toward every level 0..l; the count is taken as a
// cumulative sum over the observed levels in descending order rather
// than materializing all 256 levels per block.
func ProofLevel(chain block.Chain, k int) int {
	if k <= 0 || len(chain) < 2*k {
		return 0
	}

	counts := make(map[int]int)
	for _, b := range chain {
		counts[b.Level()]++
	}

	levels := make([]int, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))

	cumulative := 0
	for _, level := range levels {
		cumulative += counts[level]
		if cumulative >= 2*k {
			return level
		}
	}
	return 0
}
