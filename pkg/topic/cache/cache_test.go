package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/advisorpages/trainingBuilder-sub002/entities"
)

type fakeLister struct {
	mu     sync.Mutex
	topics []entities.Topic
	calls  int
	err    error

	// when gate is set, the first List call signals started and waits on gate.
	gate    chan struct{}
	started chan struct{}
	seenCtx context.Context
}

func (f *fakeLister) List(ctx context.Context) ([]entities.Topic, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.gate = nil
	f.seenCtx = ctx
	f.mu.Unlock()
	if gate != nil {
		close(f.started)
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]entities.Topic(nil), f.topics...), nil
}

func (f *fakeLister) block() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.started = make(chan struct{})
	return f.gate
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeLister) add(t entities.Topic) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, t)
}

func TestGetServesSnapshotUntilTTL(t *testing.T) {
	src := &fakeLister{topics: []entities.Topic{{ID: 1, Name: "Feedback"}}}
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c := New(src, 5*time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	s1, err := c.Get(ctx, false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	src.add(entities.Topic{ID: 2, Name: "Coaching"})

	now = now.Add(4 * time.Minute)
	s2, _ := c.Get(ctx, false)
	if s2 != s1 || src.calls != 1 {
		t.Fatalf("within ttl: want cached snapshot, calls=%d", src.calls)
	}
	if _, ok := s2.Lookup("coaching"); ok {
		t.Fatalf("stale snapshot should not see new topic yet")
	}

	now = now.Add(2 * time.Minute)
	s3, _ := c.Get(ctx, false)
	if src.calls != 2 {
		t.Fatalf("after ttl: want reload, calls=%d", src.calls)
	}
	if _, ok := s3.Lookup("  COACHING "); !ok {
		t.Fatalf("reloaded snapshot missing topic")
	}
	if _, ok := s1.Lookup("coaching"); ok {
		t.Fatalf("old snapshot must not change after refresh")
	}
}

func TestForceRefreshAndInvalidate(t *testing.T) {
	src := &fakeLister{}
	c := New(src, time.Hour)
	ctx := context.Background()

	if _, err := c.Get(ctx, false); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Get(ctx, true); err != nil {
		t.Fatalf("Get forced: %v", err)
	}
	c.Invalidate()
	if _, err := c.Get(ctx, false); err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if src.calls != 3 {
		t.Fatalf("calls: want=3 got=%d", src.calls)
	}
}

func TestRefreshErrorKeepsPreviousSnapshot(t *testing.T) {
	src := &fakeLister{topics: []entities.Topic{{ID: 1, Name: "Feedback"}}}
	c := New(src, time.Hour)
	ctx := context.Background()
	if _, err := c.Get(ctx, false); err != nil {
		t.Fatalf("Get: %v", err)
	}
	src.err = errors.New("db down")
	if _, err := c.Get(ctx, true); err == nil {
		t.Fatalf("forced Get: want error")
	}
	s, err := c.Get(ctx, false)
	if err != nil {
		t.Fatalf("Get after failed refresh: %v", err)
	}
	if _, ok := s.Lookup("feedback"); !ok {
		t.Fatalf("previous snapshot lost")
	}
}

func TestDuplicateNamesKeepFirst(t *testing.T) {
	src := &fakeLister{topics: []entities.Topic{{ID: 4, Name: "Feedback"}, {ID: 9, Name: "feedback "}}}
	s, err := New(src, time.Hour).Get(context.Background(), false)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got, _ := s.Lookup("Feedback")
	if got.ID != 4 || len(s.Topics()) != 2 {
		t.Fatalf("lookup: %+v len=%d", got, len(s.Topics()))
	}
}

func TestConcurrentReaders(t *testing.T) {
	src := &fakeLister{topics: []entities.Topic{{ID: 1, Name: "Feedback"}}}
	c := New(src, time.Nanosecond)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s, err := c.Get(ctx, j%7 == 0)
				if err != nil {
					t.Errorf("Get: %v", err)
					return
				}
				if _, ok := s.Lookup("feedback"); !ok {
					t.Errorf("snapshot without topic")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	src := &fakeLister{topics: []entities.Topic{{ID: 1, Name: "Feedback"}}}
	release := src.block()
	c := New(src, time.Hour)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Get(ctxA, false)
		errA <- err
	}()
	<-src.started

	type result struct {
		snap *Snapshot
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		s, err := c.Get(context.Background(), false)
		resB <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: want=%v got=%v", context.Canceled, err)
	}
	src.mu.Lock()
	loadErr := src.seenCtx.Err()
	src.mu.Unlock()
	if loadErr != nil {
		t.Fatalf("shared load ctx: want=nil got=%v", loadErr)
	}

	close(release)
	r := <-resB
	if r.err != nil {
		t.Fatalf("uncancelled caller: want=nil got=%v", r.err)
	}
	if _, ok := r.snap.Lookup("feedback"); !ok {
		t.Fatalf("uncancelled caller: snapshot missing topic")
	}
	if got := src.callCount(); got != 1 {
		t.Fatalf("loads: want=1 got=%d", got)
	}
}

func TestInvalidateDuringRefreshDiscardsOlderSnapshot(t *testing.T) {
	src := &fakeLister{topics: []entities.Topic{{ID: 1, Name: "Feedback"}}}
	release := src.block()
	c := New(src, time.Hour)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, false)
		done <- err
	}()
	<-src.started

	c.Invalidate()
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Get: %v", err)
	}
	src.add(entities.Topic{ID: 2, Name: "Coaching"})

	s, err := c.Get(ctx, false)
	if err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if _, ok := s.Lookup("coaching"); !ok {
		t.Fatalf("snapshot from before Invalidate was cached")
	}
	if got := src.callCount(); got != 2 {
		t.Fatalf("loads: want=2 got=%d", got)
	}
}
