package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"hrcore/internal/audit"
	"hrcore/pkg/platform/sentinel"
)

const defaultKeyPrefix = "hrcore:audit:"

// Store keeps audit entries in Redis lists: one global list plus one per
// organization and one per resource. All three are written in a single
// MULTI/EXEC, so a reader never sees an entry in one index but not another.
type Store struct {
	client *redis.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces every key the store touches.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) allKey() string { return s.prefix + "all" }

func (s *Store) orgKey(org string) string { return s.prefix + "org:" + org }

// resourceKey length-prefixes the resource so no (resource, id) pair can
// produce another pair's key.
func (s *Store) resourceKey(resource, id string) string {
	return s.prefix + "res:" + strconv.Itoa(len(resource)) + ":" + resource + ":" + id
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.allKey(), payload)
		pipe.RPush(ctx, s.orgKey(entry.OrganizationID.String()), payload)
		if entry.ResourceID != nil {
			pipe.RPush(ctx, s.resourceKey(entry.Resource, *entry.ResourceID), payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: append audit entry: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) ListByResource(ctx context.Context, resource, resourceID string) ([]audit.Entry, error) {
	return s.lrange(ctx, s.resourceKey(resource, resourceID), 0, -1)
}

// ListRecent reads the tail of the relevant list, which is already oldest first.
func (s *Store) ListRecent(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	key := s.allKey()
	if filter.OrganizationID != nil {
		key = s.orgKey(filter.OrganizationID.String())
	}
	start := int64(0)
	if filter.Limit > 0 {
		start = -int64(filter.Limit)
	}
	return s.lrange(ctx, key, start, -1)
}

func (s *Store) lrange(ctx context.Context, key string, start, stop int64) ([]audit.Entry, error) {
	raw, err := s.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read audit entries: %w", sentinel.ErrUnavailable, err)
	}
	entries := make([]audit.Entry, 0, len(raw))
	for _, r := range raw {
		var e audit.Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear deletes every key under the store's prefix.
func (s *Store) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: scan audit keys: %w", sentinel.ErrUnavailable, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: delete audit keys: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
