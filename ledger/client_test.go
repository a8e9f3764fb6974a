// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     uint64          `json:"id"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *JSONRPCClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewDefaultConfig()
	cfg.Endpoint = server.URL + "/"
	cfg.AuthHeader = "token"
	cli, err := NewJSONRPCClient(cfg)
	require.NoError(t, err)
	return cli
}

func statusHandler(t *testing.T, result string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "token", r.Header.Get("Authorization"))
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, methodGetStatus, req.Method)
		_, err := w.Write([]byte(`{"jsonrpc":"2.0","id":` + jsonUint(req.ID) + `,"result":` + result + `}`))
		require.NoError(t, err)
	}
}

func jsonUint(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestLastPeriod(t *testing.T) {
	tests := []struct {
		name        string
		result      string
		expected    uint64
		expectedErr error
	}{
		{
			name:     "numeric period",
			result:   `{"last_slot":{"period":1042,"thread":3}}`,
			expected: 1042,
		},
		{
			name:     "string period",
			result:   `{"last_slot":{"period":"77","thread":0}}`,
			expected: 77,
		},
		{
			name:        "missing last slot",
			result:      `{"node_id":"N1"}`,
			expectedErr: ErrNoLastSlot,
		},
		{
			name:        "null last slot",
			result:      `{"last_slot":null}`,
			expectedErr: ErrNoLastSlot,
		},
		{
			name:        "negative period",
			result:      `{"last_slot":{"period":-1}}`,
			expectedErr: ErrInvalidPeriod,
		},
		{
			name:        "garbage period",
			result:      `{"last_slot":{"period":"soon"}}`,
			expectedErr: ErrInvalidPeriod,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			cli := newTestClient(t, statusHandler(t, tt.result))
			period, err := cli.LastPeriod(context.Background())
			require.ErrorIs(err, tt.expectedErr)
			require.Equal(tt.expected, period)
		})
	}
}

func TestLastPeriodRPCError(t *testing.T) {
	require := require.New(t)

	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(json.NewDecoder(r.Body).Decode(&req))
		_, err := w.Write([]byte(`{"jsonrpc":"2.0","id":` + jsonUint(req.ID) + `,"error":{"code":-32603,"message":"node bootstrapping"}}`))
		require.NoError(err)
	})
	_, err := cli.LastPeriod(context.Background())
	require.ErrorContains(err, "node bootstrapping")
}

func TestOperationsRealignsByID(t *testing.T) {
	require := require.New(t)

	hashes := []string{"O1final", "O1pending", "O1unknown", "O1broken"}
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var reqs []rpcRequest
		require.NoError(json.NewDecoder(r.Body).Decode(&reqs))
		require.Len(reqs, len(hashes))

		// Reply in reverse order; the client must match by id.
		resps := make([]json.RawMessage, 0, len(reqs))
		for i := len(reqs) - 1; i >= 0; i-- {
			req := reqs[i]
			require.Equal(methodGetOperations, req.Method)
			var params [][]string
			require.NoError(json.Unmarshal(req.Params, &params))
			require.Equal([][]string{{hashes[req.ID]}}, params)

			id := jsonUint(req.ID)
			var body string
			switch hashes[req.ID] {
			case "O1final":
				body = `{"jsonrpc":"2.0","id":` + id + `,"result":[{"id":"O1final","is_final":true,"operation":{"content":{"expire_period":90}}}]}`
			case "O1pending":
				body = `{"jsonrpc":"2.0","id":` + id + `,"result":[{"id":"O1pending","in_pool":true,"is_final":false,"operation":{"content":{"expire_period":120}}}]}`
			case "O1unknown":
				body = `{"jsonrpc":"2.0","id":` + id + `,"result":[]}`
			case "O1broken":
				body = `{"jsonrpc":"2.0","id":` + id + `,"error":{"code":-32602,"message":"invalid operation id"}}`
			}
			resps = append(resps, json.RawMessage(body))
		}
		require.NoError(json.NewEncoder(w).Encode(resps))
	})

	results, err := cli.Operations(context.Background(), hashes)
	require.NoError(err)
	require.Len(results, len(hashes))

	require.NoError(results[0].Err)
	require.Len(results[0].Operations, 1)
	require.Equal("O1final", results[0].Operations[0].ID)
	require.True(results[0].Operations[0].IsFinal)
	require.Equal(uint64(90), results[0].Operations[0].Operation.Content.ExpirePeriod)

	require.NoError(results[1].Err)
	require.Len(results[1].Operations, 1)
	require.False(results[1].Operations[0].IsFinal)
	require.True(results[1].Operations[0].InPool)
	require.Equal(uint64(120), results[1].Operations[0].Operation.Content.ExpirePeriod)

	require.NoError(results[2].Err)
	require.Empty(results[2].Operations)

	require.ErrorContains(results[3].Err, "invalid operation id")
	require.Nil(results[3].Operations)
}

func TestOperationsNullResult(t *testing.T) {
	require := require.New(t)

	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var reqs []rpcRequest
		require.NoError(json.NewDecoder(r.Body).Decode(&reqs))
		require.Len(reqs, 1)
		_, err := w.Write([]byte(`[{"jsonrpc":"2.0","id":0,"result":null}]`))
		require.NoError(err)
	})

	results, err := cli.Operations(context.Background(), []string{"O1gone"})
	require.NoError(err)
	require.Len(results, 1)
	require.NoError(results[0].Err)
	require.Empty(results[0].Operations)
}

func TestOperationsEmpty(t *testing.T) {
	require := require.New(t)

	cli := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		require.FailNow("unexpected request")
	})
	results, err := cli.Operations(context.Background(), nil)
	require.NoError(err)
	require.Nil(results)
}

func TestOperationsTransportError(t *testing.T) {
	require := require.New(t)

	cli := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	results, err := cli.Operations(context.Background(), []string{"O1"})
	require.ErrorContains(err, "502")
	require.Nil(results)
}

func TestClientTimeout(t *testing.T) {
	require := require.New(t)

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	cfg := NewDefaultConfig()
	cfg.Endpoint = server.URL
	cfg.Timeout = 20 * time.Millisecond
	cli, err := NewJSONRPCClient(cfg)
	require.NoError(err)

	_, err = cli.LastPeriod(context.Background())
	require.ErrorIs(err, context.DeadlineExceeded)
}

func TestNewJSONRPCClientEmptyEndpoint(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Endpoint = "/"
	_, err := NewJSONRPCClient(cfg)
	require.ErrorIs(t, err, ErrEmptyEndpoint)
}
