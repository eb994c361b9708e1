package artifact

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps artifacts as fields of a single Redis hash, so that
// shard jobs on different machines can hand their output to combine
// without a shared filesystem.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore stores artifacts under the hash <prefix>shards.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + "shards"}
}

func (s *RedisStore) Put(ctx context.Context, a *Artifact) error {
	data, err := encode(a)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	return s.client.HSet(ctx, s.key, strconv.Itoa(a.Index), data).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]*Artifact, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read artifacts: %w", err)
	}
	arts := make([]*Artifact, 0, len(fields))
	for field, data := range fields {
		index, ok := indexOf(field)
		if !ok {
			continue
		}
		a, err := decode([]byte(data), index)
		if err != nil {
			return nil, fmt.Errorf("shard %s: %w", field, err)
		}
		arts = append(arts, a)
	}
	sort.Slice(arts, func(i, j int) bool { return arts[i].Index < arts[j].Index })
	return arts, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

var _ Store = (*RedisStore)(nil)
