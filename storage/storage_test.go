// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/logspace/mlsd/chainsource"
	"gitlab.com/logspace/mlsd/types/block"
)

var testHeaders = []chainsource.RawHeader{
	{
		Hash: "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f",
		Bits: "1d00ffff",
		Time: 1231006505,
	},
	{
		Hash: "00000000839a8e6886ab5951d76f411475428afc90947ee320161bbf18eb6048",
		Bits: "1d00ffff",
		Time: 1231469665,
	},
}

func TestHeaderStoreRoundTrip(t *testing.T) {
	store, err := OpenHeaderStore(filepath.Join(t.TempDir(), "headers.db"))
	require.NoError(t, err)
	defer store.Close()

	count, err := store.NumHeaders()
	require.NoError(t, err)
	assert.Equal(t, int32(0), count, "fresh store must be empty")

	require.NoError(t, store.SaveHeaders(testHeaders))

	count, err = store.NumHeaders()
	require.NoError(t, err)
	require.Equal(t, int32(2), count)

	header, err := store.Header(1)
	require.NoError(t, err)
	assert.Equal(t, testHeaders[1], header)

	// The store is a chainsource.Source.
	var source chainsource.Source = store
	genesis, err := source.BlockByHeight(0)
	require.NoError(t, err)
	assert.Equal(t, block.LevelInfinity, genesis.Level())

	want, err := testHeaders[1].Block(1)
	require.NoError(t, err)
	got, err := source.BlockByHeight(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = source.BlockByHeight(5)
	assert.Error(t, err)
}

func TestMetricsStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	storage := NewMetricsStorage(path)

	rows := []MetricsRow{
		{
			Height:            0,
			BlockHash:         testHeaders[0].Hash,
			BlockLevel:        block.LevelInfinity,
			Target:            "ffff0000000000000000000000000000000000000000000000000000",
			Timestamp:         1231006505,
			ProofSize:         1,
			ProofScore:        "1.0000",
			ProofLevel:        0,
			LatencyMS:         0.12,
			LastKDifficulties: "0=1.0000",
		},
		{
			Height:            1,
			BlockHash:         testHeaders[1].Hash,
			BlockLevel:        0,
			Target:            "ffff0000000000000000000000000000000000000000000000000000",
			Timestamp:         1231469665,
			ProofSize:         2,
			ProofScore:        "2.0000",
			ProofLevel:        0,
			LatencyMS:         0.34,
			LastKDifficulties: "0=2.0000",
		},
	}

	require.NoError(t, storage.SaveRows(rows))

	read, err := storage.FetchRows()
	require.NoError(t, err)
	assert.Equal(t, rows, read)
}

func TestDumpProof(t *testing.T) {
	target := block.GenesisTarget
	b0, err := block.NewBlock(0, target, target, 100)
	require.NoError(t, err)
	b1, err := block.NewBlock(1, target, target, 200)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "proof.json")
	require.NoError(t, DumpProof(path, block.Chain{b0, b1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []ProofRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, int32(0), records[0].Height)
	assert.Equal(t, block.LevelInfinity, records[0].Level)
	assert.Equal(t, "1.0000", records[0].Difficulty)
	assert.Equal(t, 0, records[1].Level)
}
