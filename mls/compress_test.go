// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package mls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/logspace/mlsd/types/block"
)

// The reference scenario compressed: heights [0 2 3 4], height 1 is
// dropped as non-qualifying at every retained level.
func TestCompressReferenceScenario(t *testing.T) {
	params := Params{K: 1, Chi: 0, UnstableLen: 1}
	chain := chainWithLevels(t, block.LevelInfinity, 0, 1, 0, 2)

	proof, err := Compress(chain, params)
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 2, 3, 4}, proof.Heights())
}

func TestCompressIsSubsequenceByHeight(t *testing.T) {
	params := Params{K: 2, Chi: 1, UnstableLen: 2}
	chain := chainWithLevels(t,
		block.LevelInfinity, 0, 1, 0, 2, 0, 0, 1, 3, 0, 0, 1, 0, 2, 0, 0)

	proof, err := Compress(chain, params)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(proof), len(chain))

	// Heights strictly increasing and every proof block taken
	// verbatim from the source chain.
	prev := int32(-1)
	for _, b := range proof {
		assert.Greater(t, b.Height(), prev)
		prev = b.Height()

		i := chain.IndexByHeight(b.Height())
		require.GreaterOrEqual(t, i, 0)
		assert.True(t, b.Equal(chain[i]))
	}
}

func TestCompressIdempotent(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		levels []int
	}{
		{
			name:   "reference scenario",
			params: Params{K: 1, Chi: 0, UnstableLen: 1},
			levels: []int{block.LevelInfinity, 0, 1, 0, 2},
		},
		{
			name:   "longer mixed chain",
			params: Params{K: 2, Chi: 1, UnstableLen: 2},
			levels: []int{block.LevelInfinity, 0, 1, 0, 2, 0, 0, 1, 3, 0, 0, 1, 0, 2, 0, 0},
		},
		{
			name:   "chain below activation threshold",
			params: Params{K: 10, Chi: 2, UnstableLen: 2},
			levels: []int{block.LevelInfinity, 0, 1, 0, 2, 0},
		},
	}

	for _, test := range tests {
		chain := chainWithLevels(t, test.levels...)

		once, err := Compress(chain, test.params)
		require.NoError(t, err, test.name)
		twice, err := Compress(once, test.params)
		require.NoError(t, err, test.name)

		assert.True(t, once.Equal(twice), "%s: %v != %v", test.name, once.Heights(), twice.Heights())
	}
}

func TestFlattenDeduplicatesByHeight(t *testing.T) {
	chain := chainWithLevels(t, block.LevelInfinity, 2, 1)
	d := DissolvedChain{
		2: block.Chain{chain[0], chain[1]},
		1: block.Chain{chain[0], chain[1], chain[2]},
		0: block.Chain{chain[2]},
	}

	flat := d.Flatten()
	assert.Equal(t, []int32{0, 1, 2}, flat.Heights())
}
