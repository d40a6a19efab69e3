package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces history keys.
const DefaultRedisPrefix = "groundchat:history:"

// RedisStore keeps each log in a Redis list and tracks session ids in a set.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. An empty prefix uses DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Open(sessionID string) Log {
	return &redisLog{store: s, id: sessionID}
}

func (s *RedisStore) Sessions(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.sessionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) sessionsKey() string { return s.prefix + "sessions" }

func (s *RedisStore) logKey(id string) string { return s.prefix + "log:" + id }

type redisLog struct {
	store *RedisStore
	id    string
}

func (l *redisLog) Append(ctx context.Context, turn Turn) error {
	if l.id == "" {
		return ErrEmptySessionID
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	_, err = l.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, l.store.logKey(l.id), data)
		pipe.SAdd(ctx, l.store.sessionsKey(), l.id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append turn %s: %w", l.id, err)
	}
	return nil
}

func (l *redisLog) All(ctx context.Context) ([]Turn, error) {
	vals, err := l.store.client.LRange(ctx, l.store.logKey(l.id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", l.id, err)
	}

	turns := make([]Turn, 0, len(vals))
	for _, v := range vals {
		var t Turn
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			return nil, fmt.Errorf("decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (l *redisLog) Clear(ctx context.Context) error {
	_, err := l.store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, l.store.logKey(l.id))
		pipe.SRem(ctx, l.store.sessionsKey(), l.id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear history %s: %w", l.id, err)
	}
	return nil
}
