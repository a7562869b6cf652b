package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries as JSON strings under prefix. A sorted set
// scored by expiry tracks the keys so Len and Clear stay scoped to it.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisStore) indexKey() string { return s.prefix + "keys" }

func (s *RedisStore) entryKey(key string) string {
	return s.prefix + strconv.FormatUint(Hash(key), 16)
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := s.rdb.Get(ctx, s.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, err
	}
	if e.Key != key {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set writes the entry and lets redis drop it a little after it expires.
func (s *RedisStore) Set(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ttl := time.Until(e.Expires) + time.Second
	if ttl < time.Second {
		ttl = time.Second
	}
	k := s.entryKey(e.Key)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, raw, ttl)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(e.Expires.Add(time.Second).Unix()), Member: k})
		return nil
	})
	return err
}

// Len drops index members whose entries redis has already expired.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	cutoff := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.rdb.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+cutoff).Err(); err != nil {
		return 0, err
	}
	n, err := s.rdb.ZCard(ctx, s.indexKey()).Result()
	return int(n), err
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.rdb.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	keys = append(keys, s.indexKey())
	return s.rdb.Del(ctx, keys...).Err()
}
