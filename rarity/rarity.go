// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rarity checks whether a sequence of superblock levels is a
// plausible sample of a geometric process: honest proof-of-work yields
// levels with P[mu = l] = (1-p) * p^l, so a chain whose level sequence
// is wildly atypical under that model deserves suspicion. This is a
// diagnostic over generated or observed chains, not part of the proof
// engine.
package rarity

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Verdict classifies how typical a level sequence is.
type Verdict string

const (
	VerdictTypical        Verdict = "typical"
	VerdictMildlyAtypical Verdict = "mildly atypical"
	VerdictRare           Verdict = "rare"
	VerdictExtremelyRare  Verdict = "extremely rare"
)

// Report carries the rarity measures of one level sequence and their
// interpretation.
type Report struct {
	LogLikelihood         float64
	LogLikelihoodPerBlock float64
	ZScore                float64
	EmpiricalPValue       float64
	Verdict               Verdict
	// Consistency says whether the z-score and the Monte Carlo
	// p-value agree on significance at the usual 5% level.
	Consistency string
}

// LogLikelihood computes the log-likelihood of the level sequence
// under Geometric(p).
func LogLikelihood(levels []int, p float64) float64 {
	sum := 0
	for _, level := range levels {
		sum += level
	}
	n := float64(len(levels))
	return n*math.Log(1-p) + float64(sum)*math.Log(p)
}

// ZScore computes the standard score of the level sum against its
// expectation under Geometric(p).
func ZScore(levels []int, p float64) float64 {
	n := float64(len(levels))
	mean := p / (1 - p)
	variance := p / ((1 - p) * (1 - p))

	sum := 0
	for _, level := range levels {
		sum += level
	}
	return (float64(sum) - n*mean) / math.Sqrt(n*variance)
}

// EmpiricalPValue estimates, by Monte Carlo simulation, the
// probability that a geometric chain of the same length reaches a
// level sum at least as large as the observed one.
func EmpiricalPValue(levels []int, p float64, trials int, seed int64) float64 {
	rnd := rand.New(rand.NewSource(seed))

	observed := 0
	for _, level := range levels {
		observed += level
	}

	hits := 0
	for trial := 0; trial < trials; trial++ {
		sum := 0
		for range levels {
			sum += sampleLevel(rnd, p)
		}
		if sum >= observed {
			hits++
		}
	}
	return float64(hits) / float64(trials)
}

// sampleLevel draws mu ~ Geometric(p) by inverse transform.
func sampleLevel(rnd *rand.Rand, p float64) int {
	u := rnd.Float64()
	return int(math.Log(1-u) / math.Log(p))
}

// Analyze computes all rarity measures for the level sequence and
// interprets them.
func Analyze(levels []int, p float64, trials int, seed int64) (Report, error) {
	if len(levels) == 0 {
		return Report{}, errors.New("rarity analysis needs at least one level")
	}
	if p <= 0 || p >= 1 {
		return Report{}, errors.Errorf("geometric parameter p must lie in (0, 1), got %v", p)
	}
	if trials <= 0 {
		return Report{}, errors.Errorf("monte carlo trials must be positive, got %d", trials)
	}

	ll := LogLikelihood(levels, p)
	z := ZScore(levels, p)
	pval := EmpiricalPValue(levels, p, trials, seed)

	var verdict Verdict
	switch abs := math.Abs(z); {
	case abs < 1:
		verdict = VerdictTypical
	case abs < 2:
		verdict = VerdictMildlyAtypical
	case abs < 3:
		verdict = VerdictRare
	default:
		verdict = VerdictExtremelyRare
	}

	consistency := "consistent"
	if (pval < 0.05) != (math.Abs(z) > 1.96) {
		consistency = "borderline"
	}

	return Report{
		LogLikelihood:         ll,
		LogLikelihoodPerBlock: ll / float64(len(levels)),
		ZScore:                z,
		EmpiricalPValue:       pval,
		Verdict:               verdict,
		Consistency:           consistency,
	}, nil
}
