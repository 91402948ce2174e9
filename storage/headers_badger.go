// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage persists run artifacts: a badger-backed header cache
// and CSV/JSON dumps of per-height run metrics and final proofs.
package storage

import (
	"encoding/binary"
	"encoding/json"

	badger "github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/chainsource"
	"gitlab.com/logspace/mlsd/types/block"
)

const (
	headerKeyPrefix = 0x01
	metaKeyPrefix   = 0x02
)

var headerCountKey = []byte{metaKeyPrefix, 0x01}

// HeaderStore is a local header cache on badger. Once filled from a
// node it serves as a chainsource.Source, so long runs do not depend
// on the node staying reachable.
type HeaderStore struct {
	db *badger.DB
}

// OpenHeaderStore opens (or creates) the store at the given path.
func OpenHeaderStore(path string) (*HeaderStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open header store at %s", path)
	}
	return &HeaderStore{db: db}, nil
}

// Close releases the underlying database.
func (s *HeaderStore) Close() error {
	return s.db.Close()
}

func headerKey(height int32) []byte {
	key := make([]byte, 5)
	key[0] = headerKeyPrefix
	binary.BigEndian.PutUint32(key[1:], uint32(height))
	return key
}

// SaveHeaders stores the headers as heights 0..len-1, replacing any
// previous contents, and records the header count.
func (s *HeaderStore) SaveHeaders(headers []chainsource.RawHeader) error {
	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for height, header := range headers {
		data, err := json.Marshal(header)
		if err != nil {
			return errors.Wrapf(err, "unable to encode header at height %d", height)
		}
		if err := batch.Set(headerKey(int32(height)), data); err != nil {
			return errors.Wrapf(err, "unable to stage header at height %d", height)
		}
	}

	count := make([]byte, 4)
	binary.BigEndian.PutUint32(count, uint32(len(headers)))
	if err := batch.Set(headerCountKey, count); err != nil {
		return errors.Wrap(err, "unable to stage header count")
	}

	return errors.Wrap(batch.Flush(), "unable to flush headers")
}

// NumHeaders returns the stored header count.
func (s *HeaderStore) NumHeaders() (int32, error) {
	var count int32
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(headerCountKey)
		if err == badger.ErrKeyNotFound {
			count = 0
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 4 {
				return errors.New("malformed header count record")
			}
			count = int32(binary.BigEndian.Uint32(val))
			return nil
		})
	})
	if err != nil {
		return 0, errors.Wrap(err, "unable to read header count")
	}
	return count, nil
}

// Header returns the raw header stored at the given height.
func (s *HeaderStore) Header(height int32) (chainsource.RawHeader, error) {
	var header chainsource.RawHeader
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(headerKey(height))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &header)
		})
	})
	if err != nil {
		return chainsource.RawHeader{}, errors.Wrapf(err, "unable to read header at height %d", height)
	}
	return header, nil
}

// BlockByHeight converts the stored header at the given height,
// satisfying chainsource.Source.
func (s *HeaderStore) BlockByHeight(height int32) (*block.Block, error) {
	header, err := s.Header(height)
	if err != nil {
		return nil, err
	}
	return header.Block(height)
}
