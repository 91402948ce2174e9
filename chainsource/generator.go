// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package chainsource

import (
	"math/big"
	"math/rand"

	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/types/block"
)

// syntheticBlock builds a block carrying a prescribed superblock
// level: the target is the pow limit and the hash is the target
// shifted down by the level, so the level derivation recovers exactly
// the prescribed value and every block scores difficulty 1.
func syntheticBlock(height int32, level int) (*block.Block, error) {
	if level < 0 || level >= block.GenesisTarget.BitLen() {
		return nil, errors.Errorf("cannot synthesize level %d at height %d", level, height)
	}
	hash := new(big.Int).Rsh(block.GenesisTarget, uint(level))
	return block.NewBlock(height, block.GenesisTarget, hash, int64(height))
}

// ScriptedSource generates blocks with explicitly prescribed levels,
// indexed by height. It is the deterministic test harness for the
// proof engine.
type ScriptedSource struct {
	levels []int
}

// NewScriptedSource prescribes one level per height.
func NewScriptedSource(levels []int) *ScriptedSource {
	return &ScriptedSource{levels: levels}
}

// NumHeaders returns the scripted chain length.
func (s *ScriptedSource) NumHeaders() (int32, error) {
	return int32(len(s.levels)), nil
}

// BlockByHeight synthesizes the block with the prescribed level.
func (s *ScriptedSource) BlockByHeight(height int32) (*block.Block, error) {
	if height < 0 || int(height) >= len(s.levels) {
		return nil, errors.Errorf("height %d outside the scripted range 0..%d", height, len(s.levels)-1)
	}
	return syntheticBlock(height, s.levels[height])
}

// RandomSource generates blocks whose levels are sampled from a
// geometric distribution with parameter p, the distribution real
// superblock levels follow. Levels are sampled lazily in height order
// and memoized, so repeated reads of a height agree.
type RandomSource struct {
	count  int32
	p      float64
	rnd    *rand.Rand
	levels []int
}

// NewRandomSource creates a generator for count blocks. The same seed
// reproduces the same chain.
func NewRandomSource(count int32, p float64, seed int64) (*RandomSource, error) {
	if p <= 0 || p >= 1 {
		return nil, errors.Errorf("geometric parameter p must lie in (0, 1), got %v", p)
	}
	if count < 0 {
		return nil, errors.Errorf("block count must not be negative, got %d", count)
	}
	return &RandomSource{
		count: count,
		p:     p,
		rnd:   rand.New(rand.NewSource(seed)),
	}, nil
}

// NumHeaders returns the configured chain length.
func (s *RandomSource) NumHeaders() (int32, error) {
	return s.count, nil
}

// BlockByHeight synthesizes the block at the given height, sampling
// levels for any heights not visited yet.
func (s *RandomSource) BlockByHeight(height int32) (*block.Block, error) {
	if height < 0 || height >= s.count {
		return nil, errors.Errorf("height %d outside the generated range 0..%d", height, s.count-1)
	}
	for int(height) >= len(s.levels) {
		s.levels = append(s.levels, s.sampleLevel())
	}
	return syntheticBlock(height, s.levels[height])
}

// Levels returns the levels sampled so far. The rarity report consumes
// this after a run.
func (s *RandomSource) Levels() []int {
	out := make([]int, len(s.levels))
	copy(out, s.levels)
	return out
}

// sampleLevel draws mu ~ Geometric(p) with P[mu = l] = (1-p) * p^l.
func (s *RandomSource) sampleLevel() int {
	level := 0
	for s.rnd.Float64() < s.p {
		level++
	}
	return level
}
