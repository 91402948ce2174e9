// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package mls

import (
	"gitlab.com/logspace/mlsd/types/block"
)

// Compress dissolves the chain and flattens the result back into a
// single compact proof: the surviving compressible blocks, unique and
// ascending by height, followed by the untouched unstable remainder.
//
// The result never exceeds the input in length and is idempotent: once
// a proof is stable, compressing it again reselects the same blocks.
func Compress(chain block.Chain, params Params) (block.Chain, error) {
	dissolved, _, remainder, err := Dissolve(chain, params)
	if err != nil {
		return nil, err
	}

	// Remainder heights sit strictly above every compressible height,
	// so appending keeps the proof ordered without another sort.
	return append(dissolved.Flatten(), remainder...), nil
}
