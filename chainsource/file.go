// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package chainsource

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/types/block"
)

// FileSource serves blocks from a headers JSON file, the format
// written by WriteHeadersFile (and by the export-headers command).
type FileSource struct {
	headers []RawHeader
}

// NewFileSource reads the headers file into memory.
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read headers file %s", path)
	}

	var headers []RawHeader
	if err := json.Unmarshal(data, &headers); err != nil {
		return nil, errors.Wrapf(err, "unable to decode headers file %s", path)
	}

	log.Info().Int("headers", len(headers)).Str("path", path).Msg("headers file loaded")
	return &FileSource{headers: headers}, nil
}

// NumHeaders returns the number of headers in the file.
func (s *FileSource) NumHeaders() (int32, error) {
	return int32(len(s.headers)), nil
}

// BlockByHeight converts the stored header at the given height.
func (s *FileSource) BlockByHeight(height int32) (*block.Block, error) {
	if height < 0 || int(height) >= len(s.headers) {
		return nil, errors.Errorf("height %d outside the headers file range 0..%d", height, len(s.headers)-1)
	}
	return s.headers[height].Block(height)
}
