// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package mls

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/logspace/mlsd/types/block"
)

// chainWithLevels builds a synthetic chain whose blocks carry the
// prescribed levels: the target is the pow limit and the hash is the
// target shifted down by the level, so every block has difficulty 1.
// Height 0 picks up the genesis override on its own.
func chainWithLevels(t *testing.T, levels ...int) block.Chain {
	t.Helper()
	return chainWithLevelsFrom(t, 0, levels...)
}

func chainWithLevelsFrom(t *testing.T, startHeight int32, levels ...int) block.Chain {
	t.Helper()

	chain := make(block.Chain, 0, len(levels))
	for i, level := range levels {
		shift := level
		if level == block.LevelInfinity {
			shift = 0
		}
		hash := new(big.Int).Rsh(block.GenesisTarget, uint(shift))
		b, err := block.NewBlock(startHeight+int32(i), block.GenesisTarget, hash, int64(startHeight)+int64(i))
		require.NoError(t, err)
		chain = append(chain, b)
	}
	return chain
}

// blockWithDifficulty builds a block whose target is the pow limit
// divided by 2^difficultyLog2, giving an exact power-of-two difficulty.
func blockWithDifficulty(t *testing.T, height int32, level, difficultyLog2 int) *block.Block {
	t.Helper()

	target := new(big.Int).Rsh(block.GenesisTarget, uint(difficultyLog2))
	hash := new(big.Int).Rsh(target, uint(level))
	b, err := block.NewBlock(height, target, hash, int64(height))
	require.NoError(t, err)
	return b
}

func TestProofLevel(t *testing.T) {
	// Empty input and anything shorter than 2K stay at level 0.
	assert.Equal(t, 0, ProofLevel(nil, 1))
	assert.Equal(t, 0, ProofLevel(nil, 100))
	assert.Equal(t, 0, ProofLevel(chainWithLevels(t, block.LevelInfinity, 5, 5), 2))

	// A level-l block counts toward every level below it.
	chain := chainWithLevels(t, block.LevelInfinity, 0, 1, 0)
	assert.Equal(t, 1, ProofLevel(chain, 1))

	// Genesis alone cannot activate a high level.
	chain = chainWithLevels(t, block.LevelInfinity, 0, 0, 0)
	assert.Equal(t, 0, ProofLevel(chain, 1))

	chain = chainWithLevels(t, block.LevelInfinity, 3, 3, 3, 0, 0)
	assert.Equal(t, 3, ProofLevel(chain, 2))
	assert.Equal(t, 0, ProofLevel(chain, 3))
}

func TestDissolveTrivialBelowThreshold(t *testing.T) {
	params := Params{K: 5, Chi: 0, UnstableLen: 2}
	chain := chainWithLevels(t, block.LevelInfinity, 0, 1, 0, 2)

	dissolved, topLevel, remainder, err := Dissolve(chain, params)
	require.NoError(t, err)

	assert.Equal(t, 0, topLevel)
	assert.Equal(t, []int32{3, 4}, remainder.Heights())
	require.Contains(t, dissolved, 0)
	assert.Equal(t, []int32{0, 1, 2}, dissolved[0].Heights())
}

func TestDissolveWholeChainIsRemainder(t *testing.T) {
	params := Params{K: 1, Chi: 3, UnstableLen: 3}
	chain := chainWithLevels(t, block.LevelInfinity, 0, 1)

	dissolved, topLevel, remainder, err := Dissolve(chain, params)
	require.NoError(t, err)

	assert.Equal(t, 0, topLevel)
	assert.True(t, chain.Equal(remainder))
	assert.Empty(t, dissolved[0])
}

// The reference end-to-end scenario: five blocks with levels
// [inf, 0, 1, 0, 2] under k=1, chi=0, K=1.
func TestDissolveReferenceScenario(t *testing.T) {
	params := Params{K: 1, Chi: 0, UnstableLen: 1}
	chain := chainWithLevels(t, block.LevelInfinity, 0, 1, 0, 2)

	dissolved, topLevel, remainder, err := Dissolve(chain, params)
	require.NoError(t, err)

	assert.Equal(t, 1, topLevel)
	assert.Equal(t, []int32{4}, remainder.Heights())

	require.ElementsMatch(t, []int{1, 0}, dissolved.Levels())
	assert.Equal(t, []int32{0, 2}, dissolved[1].Heights())
	assert.Equal(t, []int32{2, 3}, dissolved[0].Heights())
}

func TestDissolveRejectsBadParams(t *testing.T) {
	chain := chainWithLevels(t, block.LevelInfinity, 0)

	_, _, _, err := Dissolve(chain, Params{K: 0})
	assert.True(t, errors.Is(err, ErrInvalidParams), "K=0 must be rejected: %v", err)

	_, _, _, err = Dissolve(chain, Params{K: 1, Chi: -1})
	assert.True(t, errors.Is(err, ErrInvalidParams), "negative chi must be rejected: %v", err)

	_, _, _, err = Dissolve(chain, Params{K: 1, UnstableLen: -1})
	assert.True(t, errors.Is(err, ErrInvalidParams), "negative k must be rejected: %v", err)
}

func TestDissolveNeverMutatesInput(t *testing.T) {
	params := Params{K: 1, Chi: 0, UnstableLen: 1}
	chain := chainWithLevels(t, block.LevelInfinity, 0, 1, 0, 2)
	snapshot := chain.Clone()

	_, _, _, err := Dissolve(chain, params)
	require.NoError(t, err)
	assert.True(t, snapshot.Equal(chain))

	_, err = Compress(chain, params)
	require.NoError(t, err)
	assert.True(t, snapshot.Equal(chain))
}

func TestDissolvedChainLevelsOrder(t *testing.T) {
	d := DissolvedChain{
		0: chainWithLevels(t, 0),
		3: chainWithLevels(t, 3),
		1: chainWithLevels(t, 1),
	}
	assert.Equal(t, []int{3, 1, 0}, d.Levels())
	assert.Equal(t, 0, d.MinLevel())
	assert.Equal(t, 3, d.TopLevel())
	assert.Equal(t, 0, DissolvedChain{}.TopLevel())
}
