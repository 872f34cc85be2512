package store

import (
	"context"
	"time"

	"github.com/harrisonrobin/sunsine/pkg/cache"
	"github.com/harrisonrobin/sunsine/pkg/model"
)

// CachedStore decorates a Store with a short TTL cache over the two list
// reads, so the fast poll, the slow poll and the command handlers do not
// each hammer the sheet API within the same window. Writes invalidate the
// affected key; failed reads are never cached.
type CachedStore struct {
	inner Store
	cache *cache.Cache
	ttl   time.Duration
}

func NewCached(inner Store, c *cache.Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, cache: c, ttl: ttl}
}

func (s *CachedStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	if v, ok := s.cache.Get(cache.KeyTasks); ok {
		return v.([]model.Task), nil
	}
	tasks, err := s.inner.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cache.KeyTasks, tasks, s.ttl)
	return tasks, nil
}

func (s *CachedStore) ListCompletions(ctx context.Context) ([]model.CompletionRecord, error) {
	if v, ok := s.cache.Get(cache.KeyCompletions); ok {
		return v.([]model.CompletionRecord), nil
	}
	records, err := s.inner.ListCompletions(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(cache.KeyCompletions, records, s.ttl)
	return records, nil
}

func (s *CachedStore) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	// Invalidate even when the write fails: a clear+set that died halfway
	// may still have changed the sheet.
	defer s.cache.Invalidate(cache.KeyTasks)
	return s.inner.ReplaceTasks(ctx, tasks)
}

func (s *CachedStore) ReplaceCompletions(ctx context.Context, records []model.CompletionRecord) error {
	defer s.cache.Invalidate(cache.KeyCompletions)
	return s.inner.ReplaceCompletions(ctx, records)
}

func (s *CachedStore) AppendTask(ctx context.Context, task model.Task) error {
	defer s.cache.Invalidate(cache.KeyTasks)
	return s.inner.AppendTask(ctx, task)
}

func (s *CachedStore) AppendCompletionLog(ctx context.Context, entry model.LogEntry) error {
	// The log sheet is append-only and never read back; nothing to invalidate.
	return s.inner.AppendCompletionLog(ctx, entry)
}

func (s *CachedStore) DeleteTask(ctx context.Context, name string, owner model.UserKey) error {
	defer s.cache.Invalidate(cache.KeyTasks)
	return s.inner.DeleteTask(ctx, name, owner)
}
