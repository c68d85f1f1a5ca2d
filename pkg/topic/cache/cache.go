package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/topic/matcher"
)

const (
	DefaultTTL  = 5 * time.Minute
	loadTimeout = 10 * time.Second
)

type Lister interface {
	List(ctx context.Context) ([]entities.Topic, error)
}

// Snapshot is an immutable view of the topic store keyed by normalized name.
type Snapshot struct {
	byName   map[string]entities.Topic
	topics   []entities.Topic
	LoadedAt time.Time
}

func (s *Snapshot) Lookup(name string) (entities.Topic, bool) {
	t, ok := s.byName[matcher.NormalizeName(name)]
	return t, ok
}

func (s *Snapshot) Topics() []entities.Topic {
	return append([]entities.Topic(nil), s.topics...)
}

// LookupCache serves topic lookups from a snapshot that is rebuilt when it
// is older than the TTL or when a caller forces it. Rebuilds swap the whole
// snapshot, so readers keep whatever snapshot they already hold.
type LookupCache struct {
	src   Lister
	ttl   time.Duration
	now   func() time.Time
	snap  atomic.Pointer[Snapshot]
	group singleflight.Group

	// mu orders snapshot stores against Invalidate; gen counts invalidations.
	mu  sync.Mutex
	gen uint64
}

func New(src Lister, ttl time.Duration) *LookupCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LookupCache{src: src, ttl: ttl, now: time.Now}
}

func (c *LookupCache) Get(ctx context.Context, forceRefresh bool) (*Snapshot, error) {
	if !forceRefresh {
		if s := c.snap.Load(); s != nil && c.now().Sub(s.LoadedAt) < c.ttl {
			return s, nil
		}
	}
	return c.Refresh(ctx)
}

// Refresh reloads from the store. Concurrent callers share one load, which
// runs detached from any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (c *LookupCache) Refresh(ctx context.Context) (*Snapshot, error) {
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Snapshot), nil
	}
}

const refreshKey = "refresh"

func (c *LookupCache) load(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	topics, err := c.src.List(ctx)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{
		byName:   make(map[string]entities.Topic, len(topics)),
		topics:   topics,
		LoadedAt: c.now(),
	}
	for _, t := range topics {
		key := matcher.NormalizeName(t.Name)
		if _, dup := s.byName[key]; !dup {
			s.byName[key] = t
		}
	}

	// a load that began before an Invalidate may predate the write that
	// caused it; its snapshot is returned to its waiters but not cached.
	c.mu.Lock()
	if c.gen == gen {
		c.snap.Store(s)
	}
	c.mu.Unlock()
	return s, nil
}

// Invalidate drops the current snapshot and detaches any in-flight load, so
// the next Get reloads from the store.
func (c *LookupCache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.snap.Store(nil)
	c.mu.Unlock()
	c.group.Forget(refreshKey)
}
