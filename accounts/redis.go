package accounts

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultRedisKey is the key holding the account list document.
const DefaultRedisKey = "chatauth:accounts"

// RedisPersister stores the account list as a single JSON string value.
type RedisPersister struct {
	redis redis.UniversalClient
	key   string
}

// NewRedisPersister returns a persister writing to key (DefaultRedisKey
// when empty).
func NewRedisPersister(client redis.UniversalClient, key string) *RedisPersister {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisPersister{redis: client, key: key}
}

// Load reads the account list. A missing key is an empty list.
func (p *RedisPersister) Load(ctx context.Context) ([]Account, error) {
	data, err := p.redis.Get(ctx, p.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Account{}, nil
		}
		return nil, oops.Code("ACCOUNT_STORE_READ_FAILED").
			With("key", p.key).
			Wrap(err)
	}

	var list []Account
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, oops.Code("ACCOUNT_STORE_READ_FAILED").
			With("key", p.key).
			Wrapf(err, "decode account list")
	}
	return list, nil
}

// Save overwrites the account list document.
func (p *RedisPersister) Save(ctx context.Context, list []Account) error {
	data, err := json.Marshal(list)
	if err != nil {
		return oops.Code("ACCOUNT_STORE_WRITE_FAILED").Wrapf(err, "encode account list")
	}
	if err := p.redis.Set(ctx, p.key, data, 0).Err(); err != nil {
		return oops.Code("ACCOUNT_STORE_WRITE_FAILED").
			With("key", p.key).
			Wrap(err)
	}
	return nil
}
