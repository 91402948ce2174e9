// Copyright (c) 2020 The JaxNetwork developers
// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package storage

import (
	"os"

	"github.com/gocarina/gocsv"
)

// MetricsRow is one height's worth of run measurements: the block that
// arrived and the shape of the proof after compressing it.
type MetricsRow struct {
	Height            int32   `csv:"height"`
	BlockHash         string  `csv:"block_hash"`
	BlockLevel        int     `csv:"block_level"`
	Target            string  `csv:"target"`
	Timestamp         int64   `csv:"timestamp"`
	ProofSize         int     `csv:"proof_size"`
	ProofScore        string  `csv:"proof_score"`
	ProofLevel        int     `csv:"proof_level"`
	LatencyMS         float64 `csv:"proof_generation_latency_ms"`
	LastKDifficulties string  `csv:"last_k_difficulties"`
}

// MetricsStorage reads and writes run metrics as CSV.
type MetricsStorage struct {
	path string
	file *os.File
}

func NewMetricsStorage(path string) *MetricsStorage {
	return &MetricsStorage{path: path}
}

func (storage *MetricsStorage) open(readOnly, truncate bool) error {
	mode := os.O_RDWR | os.O_CREATE
	if truncate {
		mode |= os.O_TRUNC
	}

	if readOnly {
		mode = os.O_RDONLY
	}

	file, err := os.OpenFile(storage.path, mode, 0644)
	if os.IsPermission(err) {
		file, err = os.Create(storage.path)
	}

	storage.file = file
	return err
}

func (storage *MetricsStorage) Close() {
	if storage.file != nil {
		_ = storage.file.Close()
	}
}

// FetchRows reads all rows back. Mostly useful to post-process a run.
func (storage *MetricsStorage) FetchRows() ([]MetricsRow, error) {
	if err := storage.open(true, false); err != nil {
		return nil, err
	}
	defer storage.Close()

	rows := make([]MetricsRow, 0)
	err := gocsv.UnmarshalFile(storage.file, &rows)
	return rows, err
}

// SaveRows writes the rows, replacing the file contents.
func (storage *MetricsStorage) SaveRows(rows []MetricsRow) error {
	if err := storage.open(false, true); err != nil {
		return err
	}
	defer storage.Close()

	return gocsv.MarshalFile(rows, storage.file)
}
