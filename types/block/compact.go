// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package block

import (
	"math/big"

	"github.com/pkg/errors"
)

// CompactToTarget converts the compact "bits" representation carried in
// Bitcoin block headers to the full 256-bit target. The compact form is
// a base-256 scientific notation: the most significant byte is the
// exponent (byte length of the number) and the remaining three bytes
// are the mantissa. Header sources use this to recover the target the
// proof engine derives difficulty and level from.
func CompactToTarget(bits uint32) (*big.Int, error) {
	mantissa := bits & 0x007fffff
	exponent := uint(bits >> 24)

	// The sign bit is never legitimately set in a header target.
	if bits&0x00800000 != 0 {
		return nil, errors.Errorf("compact target %08x has the sign bit set", bits)
	}

	// When the exponent is at most 3 the mantissa carries the whole
	// value, shifted down to strip the unused bytes.
	var target *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target = big.NewInt(int64(mantissa))
	} else {
		target = big.NewInt(int64(mantissa))
		target.Lsh(target, 8*(exponent-3))
	}

	if target.Sign() <= 0 {
		return nil, errors.Errorf("compact target %08x decodes to a non-positive target", bits)
	}
	if target.Cmp(GenesisTarget) > 0 {
		return nil, errors.Errorf("compact target %08x exceeds the proof-of-work limit", bits)
	}
	return target, nil
}
