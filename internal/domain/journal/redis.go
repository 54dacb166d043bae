package journal

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"food-analyzer-go/internal/platform/config"
	"food-analyzer-go/internal/platform/errors"
)

const defaultRedisPrefix = "food-analyzer"

// redisStore keeps each entry as a JSON string and orders ids in a sorted
// set scored by creation time. The set is capped at capacity.
type redisStore struct {
	client   *redis.Client
	prefix   string
	capacity int64
}

// NewRedis connects and pings the configured redis server.
func NewRedis(cfg config.JournalRedisConfig, capacity int) (Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := strings.TrimSuffix(cfg.Prefix, ":")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &redisStore{client: client, prefix: prefix, capacity: int64(capacity)}, nil
}

func (s *redisStore) key(id string) string {
	return s.prefix + ":analysis:" + id
}

func (s *redisStore) indexKey() string {
	return s.prefix + ":analyses"
}

func (s *redisStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("entry id required")
	}
	data, err := sonic.Marshal(entry)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "journal.save.marshal", "failed to encode entry", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(entry.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  float64(entry.CreatedAt.UnixMilli()),
			Member: entry.ID,
		})
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.KindStorage, "journal.save", "failed to store entry", err)
	}
	return s.trim(ctx)
}

// trim drops the oldest entries beyond capacity.
func (s *redisStore) trim(ctx context.Context) error {
	count, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return errors.Wrap(errors.KindStorage, "journal.trim", "failed to count entries", err)
	}
	overflow := count - s.capacity
	if overflow <= 0 {
		return nil
	}

	stale, err := s.client.ZRange(ctx, s.indexKey(), 0, overflow-1).Result()
	if err != nil {
		return errors.Wrap(errors.KindStorage, "journal.trim", "failed to read stale entries", err)
	}
	keys := make([]string, 0, len(stale))
	for _, id := range stale {
		keys = append(keys, s.key(id))
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRemRangeByRank(ctx, s.indexKey(), 0, overflow-1)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.KindStorage, "journal.trim", "failed to drop stale entries", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.get", "failed to load entry", err)
	}
	var entry Entry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.get", "failed to decode entry", err)
	}
	return &entry, nil
}

func (s *redisStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	limit = ClampLimit(limit)
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.list", "failed to read index", err)
	}
	if len(ids) == 0 {
		return []*Entry{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.list", "failed to load entries", err)
	}

	out := make([]*Entry, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var entry Entry
		if err := sonic.UnmarshalString(raw, &entry); err != nil {
			continue
		}
		out = append(out, &entry)
	}
	return out, nil
}

func (s *redisStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Driver: DriverRedis}
	count, err := s.client.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return stats, errors.Wrap(errors.KindStorage, "journal.stats", "failed to count entries", err)
	}
	stats.Count = count
	if count > 0 {
		if newest, err := s.Get(ctx, s.newestID(ctx)); err == nil {
			stats.Newest = &newest.CreatedAt
		}
	}
	return stats, nil
}

func (s *redisStore) newestID(ctx context.Context) string {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, 0).Result()
	if err != nil || len(ids) == 0 {
		return ""
	}
	return ids[0]
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
