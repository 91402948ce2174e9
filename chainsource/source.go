// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainsource provides the block sources the proof driver
// consumes: a Bitcoin node, a stored headers file, or a synthetic
// generator. Every source delivers blocks with contiguous heights
// starting at 0, and height 0 always carries the genesis level
// override (applied by the block constructor).
package chainsource

import (
	"encoding/json"
	"math/big"
	"os"

	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/types/block"
)

// Source produces blocks by height for the compression driver.
type Source interface {
	// NumHeaders returns the number of headers the source can serve;
	// heights 0..NumHeaders-1 are valid.
	NumHeaders() (int32, error)

	// BlockByHeight returns the block at the given height.
	BlockByHeight(height int32) (*block.Block, error)
}

// RawHeader is the minimal header record shared by the node source and
// the headers file: the subset of getblockheader the proof engine
// needs.
type RawHeader struct {
	Hash string `json:"hash"`
	Bits string `json:"bits"`
	Time int64  `json:"time"`
}

// Block converts the raw header at the given height into a Block.
func (h RawHeader) Block(height int32) (*block.Block, error) {
	hash, ok := new(big.Int).SetString(h.Hash, 16)
	if !ok {
		return nil, errors.Errorf("header at height %d has malformed hash %q", height, h.Hash)
	}

	bits, ok := new(big.Int).SetString(h.Bits, 16)
	if !ok || !bits.IsUint64() || bits.Uint64() > 0xffffffff {
		return nil, errors.Errorf("header at height %d has malformed bits %q", height, h.Bits)
	}
	target, err := block.CompactToTarget(uint32(bits.Uint64()))
	if err != nil {
		return nil, errors.Wrapf(err, "header at height %d", height)
	}

	return block.NewBlock(height, target, hash, h.Time)
}

// Blocks materializes the source's whole chain in height order.
func Blocks(source Source) (block.Chain, error) {
	count, err := source.NumHeaders()
	if err != nil {
		return nil, err
	}

	chain := make(block.Chain, 0, count)
	for height := int32(0); height < count; height++ {
		b, err := source.BlockByHeight(height)
		if err != nil {
			return nil, err
		}
		chain = append(chain, b)
	}
	return chain, nil
}

// WriteHeadersFile stores raw headers as a compact JSON array, the
// format FileSource reads back.
func WriteHeadersFile(path string, headers []RawHeader) error {
	data, err := json.Marshal(headers)
	if err != nil {
		return errors.Wrap(err, "unable to encode headers")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "unable to write headers file %s", path)
	}
	return nil
}
