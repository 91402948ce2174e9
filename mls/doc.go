// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mls implements the Mining in Logarithmic Space proof engine:
// maintaining a compressed proof over a growing header chain whose size
// grows with O(K*log n) instead of O(n), and deciding which of two
// competing proofs represents more cumulative work.
//
// The engine is purely computational. Dissolve partitions a chain into
// per-level block sets plus an unstable remainder, Compress flattens
// that partition back into a compact deduplicated proof, and Compare
// implements the fork-choice rule over the work accumulated after the
// two proofs' latest common block. All functions are deterministic,
// never mutate their inputs and take their parameters explicitly.
package mls
