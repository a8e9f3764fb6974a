// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ava-labs/opwatch/requester"
)

var _ Client = (*JSONRPCClient)(nil)

type Client interface {
	// LastPeriod returns the period of the last slot observed by the node.
	LastPeriod(ctx context.Context) (uint64, error)
	// Operations looks up every hash in a single round trip. The returned
	// slice is aligned with [hashes]: result i describes hashes[i].
	Operations(ctx context.Context, hashes []string) ([]OperationResult, error)
}

type Config struct {
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	AuthHeader string        `mapstructure:"authHeader" yaml:"authHeader"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

func NewDefaultConfig() Config {
	return Config{
		Endpoint: "http://127.0.0.1:33035",
		Timeout:  10 * time.Second,
	}
}

type JSONRPCClient struct {
	requester *requester.EndpointRequester
	options   []requester.Option
	timeout   time.Duration
}

func NewJSONRPCClient(cfg Config) (*JSONRPCClient, error) {
	uri := strings.TrimSuffix(cfg.Endpoint, "/")
	if len(uri) == 0 {
		return nil, ErrEmptyEndpoint
	}
	cli := &JSONRPCClient{
		requester: requester.New(uri),
		timeout:   cfg.Timeout,
	}
	if len(cfg.AuthHeader) > 0 {
		cli.options = append(cli.options, requester.WithHeader("Authorization", cfg.AuthHeader))
	}
	return cli, nil
}

func (cli *JSONRPCClient) LastPeriod(ctx context.Context) (uint64, error) {
	ctx, cancel := cli.withTimeout(ctx)
	defer cancel()

	resp := new(json.RawMessage)
	if err := cli.requester.SendRequest(
		ctx,
		methodGetStatus,
		[]interface{}{},
		resp,
		cli.options...,
	); err != nil {
		return 0, err
	}

	// Nodes have served the period both as a number and as a string.
	period := gjson.GetBytes(*resp, lastSlotPeriodPath)
	if !period.Exists() || period.Type == gjson.Null {
		return 0, ErrNoLastSlot
	}
	raw := period.Raw
	switch period.Type {
	case gjson.Number:
	case gjson.String:
		raw = period.Str
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidPeriod, period.Raw)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPeriod, period.Raw)
	}
	return v, nil
}

func (cli *JSONRPCClient) Operations(ctx context.Context, hashes []string) ([]OperationResult, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	ctx, cancel := cli.withTimeout(ctx)
	defer cancel()

	calls := make([]*requester.Call, len(hashes))
	replies := make([][]OperationInfo, len(hashes))
	for i, hash := range hashes {
		calls[i] = &requester.Call{
			Method: methodGetOperations,
			Params: []interface{}{[]string{hash}},
			Reply:  &replies[i],
		}
	}
	if err := cli.requester.SendBatch(ctx, calls, cli.options...); err != nil {
		return nil, err
	}

	results := make([]OperationResult, len(hashes))
	for i, call := range calls {
		if call.Err != nil {
			results[i].Err = call.Err
			continue
		}
		results[i].Operations = replies[i]
	}
	return results, nil
}

func (cli *JSONRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if cli.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cli.timeout)
}
