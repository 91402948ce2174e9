// Copyright (c) 2025 The Logspace developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.
package chainsource

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/logspace/mlsd/types/block"
)

// fakeNode serves the subset of the Bitcoin JSON-RPC interface the
// node source uses, backed by the test headers.
func fakeNode(t *testing.T, headers []RawHeader) *httptest.Server {
	t.Helper()

	hashIndex := make(map[string]int, len(headers))
	for i, h := range headers {
		hashIndex[h.Hash] = i
	}

	handleOne := func(req rpcRequest) map[string]interface{} {
		switch req.Method {
		case "getblockchaininfo":
			return map[string]interface{}{"result": map[string]interface{}{"headers": len(headers)}}
		case "getblockhash":
			height := int(req.Params[0].(float64))
			return map[string]interface{}{"result": headers[height].Hash}
		case "getblockheader":
			i, ok := hashIndex[req.Params[0].(string)]
			if !ok {
				return map[string]interface{}{"error": map[string]interface{}{"code": -5, "message": "Block not found"}}
			}
			return map[string]interface{}{"result": map[string]interface{}{
				"hash": headers[i].Hash,
				"bits": headers[i].Bits,
				"time": headers[i].Time,
			}}
		default:
			return map[string]interface{}{"error": map[string]interface{}{"code": -32601, "message": "Method not found"}}
		}
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Batch requests arrive as arrays, single calls as objects.
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))

		var err error
		if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
			var batch []rpcRequest
			require.NoError(t, json.Unmarshal(raw, &batch))
			responses := make([]map[string]interface{}, len(batch))
			for i, req := range batch {
				responses[i] = handleOne(req)
			}
			err = json.NewEncoder(w).Encode(responses)
		} else {
			var single rpcRequest
			require.NoError(t, json.Unmarshal(raw, &single))
			err = json.NewEncoder(w).Encode(handleOne(single))
		}
		require.NoError(t, err)
	}))
}

func TestNodeSourceLoadAndServe(t *testing.T) {
	server := fakeNode(t, testHeaders)
	defer server.Close()

	source := NewNodeSource(NodeRPC{Host: hostOf(server.URL), User: "user", Pass: "pass"})
	require.NoError(t, source.Load(0))

	count, err := source.NumHeaders()
	require.NoError(t, err)
	require.Equal(t, int32(len(testHeaders)), count)

	genesis, err := source.BlockByHeight(0)
	require.NoError(t, err)
	assert.Equal(t, block.LevelInfinity, genesis.Level())

	b, err := source.BlockByHeight(1)
	require.NoError(t, err)
	want, err := testHeaders[1].Block(1)
	require.NoError(t, err)
	assert.True(t, b.Equal(want))

	assert.Equal(t, testHeaders, source.RawHeaders())

	_, err = source.BlockByHeight(int32(len(testHeaders)))
	assert.Error(t, err)
}

func TestNodeSourceBreakAt(t *testing.T) {
	server := fakeNode(t, testHeaders)
	defer server.Close()

	source := NewNodeSource(NodeRPC{Host: hostOf(server.URL), User: "user", Pass: "pass"})
	require.NoError(t, source.Load(1))

	count, err := source.NumHeaders()
	require.NoError(t, err)
	assert.Equal(t, int32(1), count)
}

func TestNodeSourceUnloaded(t *testing.T) {
	source := NewNodeSource(NodeRPC{Host: "localhost:8332"})

	_, err := source.NumHeaders()
	assert.Error(t, err)
	_, err = source.BlockByHeight(0)
	assert.Error(t, err)
}

func TestSplitParams(t *testing.T) {
	params := []interface{}{0, 1, 2, 3, 4}

	chunks := splitParams(params, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, []interface{}{0, 1}, chunks[0])
	assert.Equal(t, []interface{}{2, 3, 4}, chunks[1])

	// More slices than params still covers everything in order.
	total := 0
	for _, chunk := range splitParams(params, 9) {
		total += len(chunk)
	}
	assert.Equal(t, len(params), total)
}

func hostOf(url string) string {
	return strings.TrimPrefix(url, "http://")
}
