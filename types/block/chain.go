// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package block

import (
	"math/big"
	"sort"
)

// Chain is an ordered block sequence, unique and ascending by height.
// Both full chains and compressed proofs are Chains; the proof engine
// never mutates one in place, it always returns a fresh slice.
type Chain []*Block

// Clone returns a copy of the chain backed by new storage. Blocks are
// immutable, so sharing the block pointers is safe.
func (c Chain) Clone() Chain {
	if c == nil {
		return nil
	}
	out := make(Chain, len(c))
	copy(out, c)
	return out
}

// Equal reports whether two chains hold equal blocks in the same order.
func (c Chain) Equal(other Chain) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Score sums the fixed-point difficulty of every block. An empty chain
// scores zero. This is the cumulative-work measure for fork choice.
func (c Chain) Score() *big.Int {
	total := new(big.Int)
	for _, b := range c {
		total.Add(total, b.Difficulty())
	}
	return total
}

// FilterByLevel returns the blocks whose level is at least the given
// level, preserving order. A level-l block qualifies at every level
// 0..l, so the result shrinks monotonically as level grows.
func (c Chain) FilterByLevel(level int) Chain {
	var out Chain
	for _, b := range c {
		if b.Level() >= level {
			out = append(out, b)
		}
	}
	return out
}

// IndexByHeight returns the position of the block with the given
// height, or -1 when the chain does not contain it.
func (c Chain) IndexByHeight(height int32) int {
	for i, b := range c {
		if b.Height() == height {
			return i
		}
	}
	return -1
}

// SortByHeight sorts the chain ascending by height in place and
// returns it for chaining.
func (c Chain) SortByHeight() Chain {
	sort.Slice(c, func(i, j int) bool { return c[i].Height() < c[j].Height() })
	return c
}

// Heights returns the height of every block in order. Reporting and
// tests use this; the engine itself never needs it.
func (c Chain) Heights() []int32 {
	out := make([]int32, len(c))
	for i, b := range c {
		out[i] = b.Height()
	}
	return out
}
