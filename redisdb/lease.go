// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package redisdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLeaseNotHeld = errors.New("lease not held")

// Deletes the lease key only if it still carries our token, so an expired
// lease taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease is a mutex shared by every process using the same keyspace. It is
// held as a key with a TTL, so a crashed holder releases it eventually.
// A Lease is not reentrant.
type Lease struct {
	db    *Database
	key   string
	token string
}

// NewLease returns a lease stored under [name] in the database's prefix.
func (db *Database) NewLease(name string) *Lease {
	return &Lease{
		db:    db,
		key:   db.key([]byte(name)),
		token: uuid.NewString(),
	}
}

// TryLock takes the lease if no other holder has it. It never waits.
func (l *Lease) TryLock(ctx context.Context) (bool, error) {
	ctx, cancel := l.db.context(ctx)
	defer cancel()

	return l.db.client.SetNX(ctx, l.key, l.token, l.db.leaseTTL).Result()
}

// Unlock releases the lease. It returns [ErrLeaseNotHeld] if the lease
// expired or belongs to someone else.
func (l *Lease) Unlock(ctx context.Context) error {
	ctx, cancel := l.db.context(ctx)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.db.client, []string{l.key}, l.token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLeaseNotHeld
	}
	return nil
}
