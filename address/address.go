// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package address converts between raw versioned payloads and their
// base58check form. The first byte of a payload is its version prefix.
package address

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil/base58"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrInvalidChecksum = errors.New("invalid checksum")
)

// Encode returns base58(prefix || data || checksum) where [b] is
// prefix || data and checksum is the first four bytes of the double
// sha256 of prefix || data.
func Encode(b []byte) (string, error) {
	if len(b) == 0 {
		return "", ErrEmptyInput
	}
	return base58.CheckEncode(b[1:], b[0]), nil
}

// Decode reverses Encode, returning prefix || data.
func Decode(s string) ([]byte, error) {
	data, version, err := base58.CheckDecode(s)
	switch {
	case errors.Is(err, base58.ErrChecksum):
		return nil, ErrInvalidChecksum
	case err != nil:
		return nil, ErrInvalidFormat
	}
	out := make([]byte, 0, 1+len(data))
	out = append(out, version)
	return append(out, data...), nil
}
