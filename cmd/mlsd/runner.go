// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gitlab.com/logspace/mlsd/chainsource"
	"gitlab.com/logspace/mlsd/mls"
	"gitlab.com/logspace/mlsd/storage"
	"gitlab.com/logspace/mlsd/types/block"
)

// runner replays a chain height by height, maintaining the compressed
// proof and recording one metrics row per height.
type runner struct {
	source    chainsource.Source
	params    mls.Params
	breakAt   int32
	printStep int32
	log       zerolog.Logger
	interrupt <-chan struct{}
}

type runResult struct {
	proof       block.Chain
	rows        []storage.MetricsRow
	interrupted bool
}

func (r *runner) run() (*runResult, error) {
	if err := r.params.Validate(); err != nil {
		return nil, err
	}

	count, err := r.source.NumHeaders()
	if err != nil {
		return nil, errors.Wrap(err, "unable to size the chain")
	}
	if r.breakAt > 0 && r.breakAt < count {
		count = r.breakAt
	}

	r.log.Info().
		Int32("blocks", count).
		Int("security_parameter", r.params.K).
		Int("uncompressed_part", r.params.Chi).
		Int("unstable_part", r.params.UnstableLen).
		Msg("starting run")

	result := &runResult{rows: make([]storage.MetricsRow, 0, count)}
	proof := block.Chain{}

	for height := int32(0); height < count; height++ {
		select {
		case <-r.interrupt:
			r.log.Info().Int32("height", height).Msg("run interrupted")
			result.interrupted = true
			result.proof = proof
			return result, nil
		default:
		}

		b, err := r.source.BlockByHeight(height)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to fetch block at height %d", height)
		}

		extended := append(proof.Clone(), b)

		start := time.Now()
		compressed, err := mls.Compress(extended, r.params)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to compress at height %d", height)
		}
		latency := time.Since(start)

		// An honest chain replayed against its own past must win fork
		// choice; losing means the engine is broken. Before k+chi
		// blocks both proofs are all remainder and compare as equal,
		// so the check starts after that.
		if height > int32(r.params.UnstableLen+r.params.Chi) {
			winner, err := mls.Compare(proof, compressed, r.params, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "unable to compare proofs at height %d", height)
			}
			if !winner.Equal(compressed) {
				return nil, errors.Errorf("extended proof lost fork choice at height %d", height)
			}
		}

		dissolved, _, _, err := mls.Dissolve(compressed, r.params)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to dissolve at height %d", height)
		}
		proofLevel := mls.ProofLevel(compressed, r.params.K)

		result.rows = append(result.rows, storage.MetricsRow{
			Height:            height,
			BlockHash:         fmt.Sprintf("%064x", b.Hash()),
			BlockLevel:        b.Level(),
			Target:            b.Target().Text(16),
			Timestamp:         b.Timestamp(),
			ProofSize:         len(compressed),
			ProofScore:        block.FormatDifficulty(compressed.Score()),
			ProofLevel:        proofLevel,
			LatencyMS:         float64(latency.Microseconds()) / 1000,
			LastKDifficulties: lastKDifficulties(dissolved, r.params.K),
		})

		proof = compressed

		if r.printStep > 0 && height%r.printStep == 0 {
			r.log.Info().
				Int32("height", height).
				Int("proof_size", len(compressed)).
				Int("proof_level", proofLevel).
				Msg("progress")
		}
	}

	result.proof = proof
	return result, nil
}

// lastKDifficulties summarizes the work held at each dissolved level:
// the score of the last K blocks (or all of them, below K), formatted
// from the top level down.
func lastKDifficulties(dissolved mls.DissolvedChain, k int) string {
	parts := make([]string, 0, len(dissolved))
	for _, mu := range dissolved.Levels() {
		blocks := dissolved[mu]
		if len(blocks) > k {
			blocks = blocks[len(blocks)-k:]
		}
		parts = append(parts, fmt.Sprintf("%d=%s", mu, block.FormatDifficulty(blocks.Score())))
	}
	return strings.Join(parts, ";")
}
