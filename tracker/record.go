// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tracker

const (
	StatusConfirmed    = "Confirmed"
	StatusExpirePeriod = "Expire period"
	StatusNotFound     = "Hash out of storage"
)

// Record is a submitted operation awaiting (or past) finality.
//
// Once [Confirmed] is true the record is terminal and is never modified
// again. [Success] and [Error] are only meaningful for terminal records.
type Record struct {
	Hash      string `json:"hash"`
	Title     string `json:"title"`
	Timestamp int64  `json:"timestamp"`
	Confirmed bool   `json:"confirmed"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`

	// Failures counts consecutive lookup errors while the record is pending.
	Failures uint32 `json:"failures,omitempty"`
}

func (r *Record) stale(now int64, threshold int64) bool {
	return !r.Confirmed && now-r.Timestamp > threshold
}

// finalize moves the record into its terminal state and returns the reason
// to report.
func (r *Record) finalize(success bool, reason string) string {
	r.Confirmed = true
	r.Success = success
	if success {
		r.Error = ""
		return StatusConfirmed
	}
	r.Error = reason
	return reason
}
