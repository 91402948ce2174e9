// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package block provides the header-level block model used by the
// logarithmic-space proof engine: a block is a height, a proof-of-work
// target, a hash and a timestamp, from which a reference difficulty and
// a superblock level are derived once at construction time.
package block

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

const (
	// LevelInfinity is the sentinel superblock level assigned to the
	// genesis block. It exceeds any level obtainable from a 256-bit
	// hash, so genesis participates in every level without having to
	// satisfy a real superblock threshold.
	LevelInfinity = 256

	// difficultyScale is the fixed-point denominator for derived
	// difficulties. Difficulties are kept as exact integers in units
	// of 1/difficultyScale to avoid floating drift when summed over
	// long chains.
	difficultyScale = 10000
)

// GenesisTarget is the easiest possible proof-of-work target,
// 0xFFFF * 2^208 (the Bitcoin proof-of-work limit). It anchors the
// reference difficulty of every block.
var GenesisTarget = new(big.Int).Lsh(big.NewInt(0xFFFF), 208)

var bigDifficultyScale = big.NewInt(difficultyScale)

// Block is one chain header together with its derived difficulty and
// superblock level. Blocks are immutable once constructed; the big.Int
// fields returned by the accessors must be treated as read-only.
type Block struct {
	height    int32
	target    *big.Int
	hash      *big.Int
	timestamp int64

	difficulty *big.Int
	level      int
}

// NewBlock constructs a block and derives its difficulty and level.
// The block at height 0 receives the LevelInfinity genesis override
// regardless of its hash/target ratio.
func NewBlock(height int32, target, hash *big.Int, timestamp int64) (*Block, error) {
	if height < 0 {
		return nil, errors.Errorf("block height %d is negative", height)
	}

	difficulty, err := DeriveDifficulty(target)
	if err != nil {
		return nil, err
	}

	level, err := DeriveLevel(hash, target)
	if err != nil {
		return nil, err
	}
	if height == 0 {
		level = LevelInfinity
	}

	return &Block{
		height:     height,
		target:     new(big.Int).Set(target),
		hash:       new(big.Int).Set(hash),
		timestamp:  timestamp,
		difficulty: difficulty,
		level:      level,
	}, nil
}

// Height returns the block's position in the chain.
func (b *Block) Height() int32 { return b.height }

// Target returns the proof-of-work threshold the block was mined
// against. Smaller targets are harder.
func (b *Block) Target() *big.Int { return b.target }

// Hash returns the block's identifying digest as an integer.
func (b *Block) Hash() *big.Int { return b.hash }

// Timestamp returns the block creation time. The proof engine carries
// it through untouched; only reporting looks at it.
func (b *Block) Timestamp() int64 { return b.timestamp }

// Difficulty returns the reference difficulty, genesisTarget/target
// rounded to four decimal places, as a fixed-point integer in units
// of 1e-4.
func (b *Block) Difficulty() *big.Int { return b.difficulty }

// Level returns the superblock level. A level-l block is automatically
// a member of every level 0..l.
func (b *Block) Level() int { return b.level }

// Equal reports whether two blocks match on every field.
func (b *Block) Equal(other *Block) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.height == other.height &&
		b.timestamp == other.timestamp &&
		b.level == other.level &&
		b.target.Cmp(other.target) == 0 &&
		b.hash.Cmp(other.hash) == 0 &&
		b.difficulty.Cmp(other.difficulty) == 0
}

func (b *Block) String() string {
	return fmt.Sprintf("block(height=%d, level=%d, diff=%s)",
		b.height, b.level, FormatDifficulty(b.difficulty))
}

// DeriveLevel computes the superblock level floor(-log2(hash/target)),
// the number of difficulty doublings the block would still satisfy.
// The computation is exact: it compares bit lengths instead of taking a
// floating-point logarithm of a 256-bit ratio, which loses precision
// near level boundaries. A hash above the target clamps to level 0.
func DeriveLevel(hash, target *big.Int) (int, error) {
	if hash == nil || hash.Sign() <= 0 {
		return 0, errors.New("derive level: hash must be positive")
	}
	if target == nil || target.Sign() <= 0 {
		return 0, errors.New("derive level: target must be positive")
	}

	// floor(log2(target/hash)) is either d or d-1 where d is the bit
	// length difference, because target/hash lies in (2^(d-1), 2^(d+1)).
	d := target.BitLen() - hash.BitLen()
	if d <= 0 {
		return 0, nil
	}
	if new(big.Int).Lsh(hash, uint(d)).Cmp(target) <= 0 {
		return d, nil
	}
	return d - 1, nil
}

// DeriveDifficulty computes genesisTarget/target rounded to four
// decimal places, returned as an exact fixed-point integer in units
// of 1e-4. Summed across blocks this is the chain score used for
// fork choice, so it must never go through floating point.
func DeriveDifficulty(target *big.Int) (*big.Int, error) {
	if target == nil || target.Sign() <= 0 {
		return nil, errors.New("derive difficulty: target must be positive")
	}

	num := new(big.Int).Mul(GenesisTarget, bigDifficultyScale)
	quo, rem := new(big.Int).QuoRem(num, target, new(big.Int))
	// Round half away from zero on the 1e-4 digit.
	if new(big.Int).Lsh(rem, 1).Cmp(target) >= 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo, nil
}

// FormatDifficulty renders a fixed-point difficulty (or a chain score,
// which shares the 1e-4 scale) as a decimal string.
func FormatDifficulty(d *big.Int) string {
	if d == nil {
		return "0"
	}
	quo, rem := new(big.Int).QuoRem(d, bigDifficultyScale, new(big.Int))
	rem.Abs(rem)
	return fmt.Sprintf("%s.%04d", quo.String(), rem.Int64())
}
