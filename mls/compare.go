// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package mls

import (
	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/types/block"
)

// Validator decides whether a proof is structurally acceptable before
// it enters fork choice. The engine itself performs no header-linkage
// or proof-of-work checks; a deployment that needs them plugs in its
// own implementation.
type Validator interface {
	ProofValid(proof block.Chain) bool
}

// AlwaysValid accepts every proof. It is the default validator and
// mirrors the open validity gap of the protocol description: hash
// ordering, target continuity and hash<target are not checked here.
var AlwaysValid Validator = alwaysValid{}

type alwaysValid struct{}

func (alwaysValid) ProofValid(block.Chain) bool { return true }

// Intersection returns, for each level present in both dissolutions,
// the blocks of a whose height also appears in b at that level. Levels
// with no height overlap are absent. The returned blocks are a's, not
// b's; callers needing the latest common block should rely on height
// equality only.
func Intersection(a, b DissolvedChain) DissolvedChain {
	common := make(DissolvedChain)
	for mu, aBlocks := range a {
		bBlocks, ok := b[mu]
		if !ok {
			continue
		}

		bHeights := make(map[int32]struct{}, len(bBlocks))
		for _, blk := range bBlocks {
			bHeights[blk.Height()] = struct{}{}
		}

		var overlap block.Chain
		for _, blk := range aBlocks {
			if _, ok := bHeights[blk.Height()]; ok {
				overlap = append(overlap, blk)
			}
		}
		if len(overlap) > 0 {
			common[mu] = overlap
		}
	}
	return common
}

// Compare is the fork-choice rule: it returns whichever of the two
// proofs accumulated more work since their latest common block.
//
// Both proofs are dissolved and intersected. The lowest common level
// carries the richest shared block set, and its last shared block is
// the latest point of agreement; each proof is then scored over its
// blocks from that point onward plus its unstable remainder. Scoring
// only the diverged part means an attacker cannot win by padding the
// agreed-upon prefix. When the proofs share nothing at all, the higher
// dissolution level wins.
//
// proofA is the incumbent: ties and every non-strict comparison keep
// it. A nil validator means AlwaysValid.
func Compare(proofA, proofB block.Chain, params Params, validator Validator) (block.Chain, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if validator == nil {
		validator = AlwaysValid
	}

	if !validator.ProofValid(proofA) {
		return proofB, nil
	}
	if !validator.ProofValid(proofB) {
		return proofA, nil
	}

	dissolvedA, levelA, remainderA, err := Dissolve(proofA, params)
	if err != nil {
		return nil, err
	}
	dissolvedB, levelB, remainderB, err := Dissolve(proofB, params)
	if err != nil {
		return nil, err
	}

	common := Intersection(dissolvedA, dissolvedB)
	if len(common) == 0 {
		if levelB > levelA {
			return proofB, nil
		}
		return proofA, nil
	}

	mu := common.MinLevel()
	shared := common[mu]
	latest := shared[len(shared)-1]

	indexA := dissolvedA[mu].IndexByHeight(latest.Height())
	indexB := dissolvedB[mu].IndexByHeight(latest.Height())
	if indexA < 0 || indexB < 0 {
		return nil, errors.Wrapf(ErrInvariant,
			"latest common block at height %d is missing from level %d", latest.Height(), mu)
	}

	scoreA := dissolvedA[mu][indexA:].Score()
	scoreA.Add(scoreA, remainderA.Score())
	scoreB := dissolvedB[mu][indexB:].Score()
	scoreB.Add(scoreB, remainderB.Score())

	log.Debug().
		Int("common_level", mu).
		Int32("latest_common_height", latest.Height()).
		Str("score_a", block.FormatDifficulty(scoreA)).
		Str("score_b", block.FormatDifficulty(scoreB)).
		Msg("compared proofs")

	if scoreB.Cmp(scoreA) > 0 {
		return proofB, nil
	}
	return proofA, nil
}
