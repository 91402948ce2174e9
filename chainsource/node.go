// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package chainsource

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"gitlab.com/logspace/mlsd/types/block"
)

// NodeRPC is the connection configuration for a Bitcoin node's
// JSON-RPC interface.
type NodeRPC struct {
	Host string `yaml:"host"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// NodeSource loads headers from a Bitcoin node over JSON-RPC. Headers
// are pulled once in large batched requests and then served from
// memory; the proof loop must not pay one round trip per block.
type NodeSource struct {
	client *resty.Client
	url    string

	headers []RawHeader
}

// defaultPullSlices is the number of chunks header batch pulls are
// split into, so a single JSON-RPC batch body stays reasonable for
// multi-hundred-thousand-header chains.
const defaultPullSlices = 4

// NewNodeSource creates a source talking to the given node. Call Load
// before serving blocks.
func NewNodeSource(cfg NodeRPC) *NodeSource {
	return &NodeSource{
		client: resty.New(),
		url:    fmt.Sprintf("http://%s:%s@%s", cfg.User, cfg.Pass, cfg.Host),
	}
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Load pulls headers from the node: the chain header count (or breakAt
// when positive), then every block hash, then every header, batched.
func (s *NodeSource) Load(breakAt int32) error {
	count := breakAt
	if count <= 0 {
		var info struct {
			Headers int32 `json:"headers"`
		}
		result, err := s.call("getblockchaininfo")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(result, &info); err != nil {
			return errors.Wrap(err, "unable to decode getblockchaininfo")
		}
		count = info.Headers
	}

	log.Info().Int32("headers", count).Msg("loading headers from node")

	hashParams := make([]interface{}, count)
	for height := int32(0); height < count; height++ {
		hashParams[height] = height
	}
	hashResults, err := s.pull("getblockhash", hashParams, 2)
	if err != nil {
		return err
	}

	headerParams := make([]interface{}, len(hashResults))
	for i, raw := range hashResults {
		var hash string
		if err := json.Unmarshal(raw, &hash); err != nil {
			return errors.Wrapf(err, "unable to decode block hash at height %d", i)
		}
		headerParams[i] = hash
	}
	headerResults, err := s.pull("getblockheader", headerParams, defaultPullSlices)
	if err != nil {
		return err
	}

	headers := make([]RawHeader, len(headerResults))
	for i, raw := range headerResults {
		var header struct {
			Hash string `json:"hash"`
			Bits string `json:"bits"`
			Time int64  `json:"time"`
		}
		if err := json.Unmarshal(raw, &header); err != nil {
			return errors.Wrapf(err, "unable to decode header at height %d", i)
		}
		headers[i] = RawHeader{Hash: header.Hash, Bits: header.Bits, Time: header.Time}
	}

	s.headers = headers
	log.Info().Int("headers", len(headers)).Msg("headers loaded")
	return nil
}

// NumHeaders returns the number of loaded headers.
func (s *NodeSource) NumHeaders() (int32, error) {
	if s.headers == nil {
		return 0, errors.New("node source is not loaded")
	}
	return int32(len(s.headers)), nil
}

// BlockByHeight serves a block from the loaded headers.
func (s *NodeSource) BlockByHeight(height int32) (*block.Block, error) {
	if s.headers == nil {
		return nil, errors.New("node source is not loaded")
	}
	if height < 0 || int(height) >= len(s.headers) {
		return nil, errors.Errorf("height %d outside the loaded range 0..%d", height, len(s.headers)-1)
	}
	return s.headers[height].Block(height)
}

// RawHeaders exposes the loaded headers for export.
func (s *NodeSource) RawHeaders() []RawHeader {
	return s.headers
}

// call performs a single JSON-RPC request.
func (s *NodeSource) call(method string, params ...interface{}) (json.RawMessage, error) {
	if params == nil {
		params = []interface{}{}
	}

	resp, err := s.client.R().
		SetBody(rpcRequest{Method: method, Params: params}).
		Post(s.url)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc call %s failed", method)
	}

	var decoded rpcResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s response", method)
	}
	if decoded.Error != nil {
		return nil, errors.Errorf("rpc call %s failed: %d %s", method, decoded.Error.Code, decoded.Error.Message)
	}
	return decoded.Result, nil
}

// pull performs a batched JSON-RPC call per parameter, split into the
// given number of slices.
func (s *NodeSource) pull(method string, params []interface{}, slices int) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, 0, len(params))

	for _, chunk := range splitParams(params, slices) {
		if len(chunk) == 0 {
			continue
		}

		payload := make([]rpcRequest, len(chunk))
		for i, param := range chunk {
			payload[i] = rpcRequest{Method: method, Params: []interface{}{param}}
		}

		resp, err := s.client.R().SetBody(payload).Post(s.url)
		if err != nil {
			return nil, errors.Wrapf(err, "rpc batch %s failed", method)
		}

		var decoded []rpcResponse
		if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
			return nil, errors.Wrapf(err, "unable to decode %s batch response", method)
		}
		for _, r := range decoded {
			if r.Error != nil {
				return nil, errors.Errorf("rpc batch %s failed: %d %s", method, r.Error.Code, r.Error.Message)
			}
			results = append(results, r.Result)
		}
	}

	if len(results) != len(params) {
		return nil, errors.Errorf("rpc batch %s returned %d results for %d requests", method, len(results), len(params))
	}
	return results, nil
}

// splitParams divides params into wanted roughly equal chunks,
// preserving order.
func splitParams(params []interface{}, wanted int) [][]interface{} {
	if wanted < 1 {
		wanted = 1
	}
	length := len(params)
	chunks := make([][]interface{}, wanted)
	for i := 0; i < wanted; i++ {
		chunks[i] = params[i*length/wanted : (i+1)*length/wanted]
	}
	return chunks
}
