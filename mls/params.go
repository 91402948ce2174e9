// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package mls

import (
	"github.com/pkg/errors"
)

// ErrInvalidParams marks a parameter set the engine cannot interpret.
// It is reported before any computation begins.
var ErrInvalidParams = errors.New("invalid proof parameters")

// ErrInvariant marks an internal invariant violation inside Dissolve,
// such as an upper level holding fewer than K blocks. It indicates a
// programming defect, not bad input.
var ErrInvariant = errors.New("proof dissolution invariant violated")

// Params carries the three proof parameters. They are threaded
// explicitly into every Dissolve/Compress/Compare call; the engine
// keeps no ambient configuration.
type Params struct {
	// K is the security parameter: a level needs at least 2K blocks
	// to activate.
	K int `yaml:"security_parameter"`
	// Chi is the length of the uncompressed suffix.
	Chi int `yaml:"uncompressed_part_length"`
	// UnstableLen is the common prefix parameter k, the length of the
	// unstable suffix.
	UnstableLen int `yaml:"unstable_part_length"`
}

// DefaultParams returns the parameterization used for Bitcoin mainnet
// runs.
func DefaultParams() Params {
	return Params{
		K:           208,
		Chi:         4032,
		UnstableLen: 323,
	}
}

// Validate reports whether the parameter set is usable.
func (p Params) Validate() error {
	if p.K <= 0 {
		return errors.Wrapf(ErrInvalidParams, "security parameter K must be positive, got %d", p.K)
	}
	if p.Chi < 0 {
		return errors.Wrapf(ErrInvalidParams, "uncompressed part length chi must not be negative, got %d", p.Chi)
	}
	if p.UnstableLen < 0 {
		return errors.Wrapf(ErrInvalidParams, "unstable part length k must not be negative, got %d", p.UnstableLen)
	}
	return nil
}

// suffixLen is the number of most recent blocks that are always kept
// in full and never dissolved.
func (p Params) suffixLen() int {
	return p.UnstableLen + p.Chi
}
