// Copyright (c) 2020 The JaxNetwork developers
// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package main

const (
	flagBlocks  = "blocks"
	flagBreakAt = "break-at"
	flagConfig  = "config"
	flagGeomP   = "p"
	flagHeadersDB     = "headers-db"
	flagHeadersFile   = "headers-file"
	flagLevels        = "levels"
	flagMetricsFile   = "metrics-file"
	flagOut           = "out"
	flagPrintStep     = "print-step"
	flagProofFile     = "proof-file"
	flagSecurityParam = "security-parameter"
	flagSeed          = "seed"
	flagSource        = "source"
	flagTrials        = "trials"
	flagUncompressed  = "uncompressed-part-length"
	flagUnstable      = "unstable-part-length"
)
