package repositoryImp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/draft/repository"
)

const redisPrefix = "trainingbuilder:draft:"

type redisRepo struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis connects and pings before returning. Drafts expire ttl after
// their last save; ttl <= 0 keeps them forever.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (repository.DraftRepository, *goredis.Client, error) {
	if addr == "" {
		return nil, nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisRepo{rdb: rdb, ttl: ttl}, rdb, nil
}

func (r *redisRepo) Put(ctx context.Context, d *entities.Draft) error {
	raw, err := json.Marshal(redisDraft{Key: d.Key, SessionID: d.SessionID, Payload: d.Payload, SavedAt: d.SavedAt})
	if err != nil {
		return err
	}
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, redisPrefix+d.Key, raw, ttl).Err()
}

func (r *redisRepo) Get(ctx context.Context, key string) (*entities.Draft, error) {
	raw, err := r.rdb.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rd redisDraft
	if err := json.Unmarshal(raw, &rd); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return &entities.Draft{Key: rd.Key, SessionID: rd.SessionID, Payload: rd.Payload, SavedAt: rd.SavedAt}, nil
}

func (r *redisRepo) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, redisPrefix+key).Err()
}

// entities.Draft hides Payload from JSON.
type redisDraft struct {
	Key       string    `json:"key"`
	SessionID *uint     `json:"sessionId,omitempty"`
	Payload   string    `json:"payload"`
	SavedAt   time.Time `json:"savedAt"`
}
