// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/rpc/v2/json2"
)

const (
	jsonRPCVersion = "2.0"
	defaultTimeout = 30 * time.Second
)

var (
	ErrMissingResponse = errors.New("missing response")
	ErrUnknownID       = errors.New("response for unknown request id")
)

type EndpointRequester struct {
	cli *http.Client
	uri string
}

func New(uri string) *EndpointRequester {
	return &EndpointRequester{
		cli: &http.Client{Timeout: defaultTimeout},
		uri: uri,
	}
}

// Call is a single entry of a batch request. After SendBatch returns
// without error, either [Reply] has been decoded or [Err] is set. A null
// result decodes into [Reply] like any other value.
type Call struct {
	Method string
	Params interface{}
	Reply  interface{}
	Err    error
}

type clientRequest struct {
	Version string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
}

type clientResponse struct {
	Version string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *json2.Error    `json:"error"`
	ID      *uint64         `json:"id"`
}

func (e *EndpointRequester) SendRequest(
	ctx context.Context,
	method string,
	params interface{},
	reply interface{},
	options ...Option,
) error {
	requestBodyBytes, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}
	body, err := e.post(ctx, requestBodyBytes, options)
	if err != nil {
		return err
	}
	defer body.Close()

	return json2.DecodeClientResponse(body, reply)
}

// SendBatch issues [calls] as a single JSON-RPC batch. Responses are matched
// to calls by id, so the server is free to answer in any order.
func (e *EndpointRequester) SendBatch(
	ctx context.Context,
	calls []*Call,
	options ...Option,
) error {
	if len(calls) == 0 {
		return nil
	}

	requests := make([]clientRequest, len(calls))
	for i, call := range calls {
		requests[i] = clientRequest{
			Version: jsonRPCVersion,
			Method:  call.Method,
			Params:  call.Params,
			ID:      uint64(i),
		}
	}
	requestBodyBytes, err := json.Marshal(requests)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	body, err := e.post(ctx, requestBodyBytes, options)
	if err != nil {
		return err
	}
	defer body.Close()

	var responses []clientResponse
	if err := json.NewDecoder(body).Decode(&responses); err != nil {
		return fmt.Errorf("failed to decode batch response: %w", err)
	}

	answered := make([]bool, len(calls))
	for _, resp := range responses {
		if resp.ID == nil || *resp.ID >= uint64(len(calls)) {
			return ErrUnknownID
		}
		i := *resp.ID
		if answered[i] {
			continue
		}
		answered[i] = true
		call := calls[i]
		switch {
		case resp.Error != nil:
			call.Err = resp.Error
		case len(resp.Result) == 0:
			call.Err = fmt.Errorf("%w: no result", ErrMissingResponse)
		default:
			if err := json.Unmarshal(resp.Result, call.Reply); err != nil {
				call.Err = fmt.Errorf("failed to decode result: %w", err)
			}
		}
	}
	for i, ok := range answered {
		if !ok {
			calls[i].Err = ErrMissingResponse
		}
	}
	return nil
}

func (e *EndpointRequester) post(ctx context.Context, payload []byte, options []Option) (io.ReadCloser, error) {
	uri, err := url.Parse(e.uri)
	if err != nil {
		return nil, err
	}

	ops := NewOptions(options)
	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		uri.String(),
		bytes.NewBuffer(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	request.Header = ops.headers
	request.Header.Set("Content-Type", "application/json")

	resp, err := e.cli.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to issue request: %w", err)
	}

	// Return an error for any non successful status code
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("received status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
