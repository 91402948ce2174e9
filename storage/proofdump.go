// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package storage

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/types/block"
)

// ProofRecord is the serialized form of one proof block.
type ProofRecord struct {
	Height     int32  `json:"height"`
	Level      int    `json:"level"`
	Target     string `json:"target"`
	Hash       string `json:"hash"`
	Timestamp  int64  `json:"timestamp"`
	Difficulty string `json:"difficulty"`
}

// DumpProof writes the final proof structure to a JSON file. This is a
// reporting artifact, not a wire format: the engine defines no proof
// serialization of its own.
func DumpProof(path string, proof block.Chain) error {
	records := make([]ProofRecord, len(proof))
	for i, b := range proof {
		records[i] = ProofRecord{
			Height:     b.Height(),
			Level:      b.Level(),
			Target:     b.Target().Text(16),
			Hash:       b.Hash().Text(16),
			Timestamp:  b.Timestamp(),
			Difficulty: block.FormatDifficulty(b.Difficulty()),
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to encode proof")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "unable to write proof dump %s", path)
	}
	return nil
}
