// Package overdue maintains the per-user completed and overdue counters
// in the completion sheet. The sheet has no row-level writes, so every
// update is read the whole table, dedupe it, change one record, write the
// whole table back. Two writers racing on that cycle can lose an update;
// the periodic normalization pass and the next honest increment are the
// only remedies, and that is an accepted property of the design.
package overdue

import (
	"context"
	"log/slog"

	"github.com/harrisonrobin/sunsine/pkg/cache"
	"github.com/harrisonrobin/sunsine/pkg/model"
	"github.com/harrisonrobin/sunsine/pkg/reconcile"
	"github.com/harrisonrobin/sunsine/pkg/store"
)

// Accountant performs the read-dedupe-mutate-writeback cycles. It reads
// through the raw store, never the cached one: read-modify-write on a
// minutes-stale snapshot would resurrect old counts. It invalidates the
// completions cache key after each write so cached readers converge.
type Accountant struct {
	store  store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

func NewAccountant(s store.Store, c *cache.Cache, logger *slog.Logger) *Accountant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accountant{store: s, cache: c, logger: logger}
}

// RecordOverdue bumps owner's overdue counter by one, creating a
// {completed: 0, overdue: 1} record if the user has no row yet, and
// returns the new overdue count. On error the count is unknown — callers
// must not present it as zero.
func (a *Accountant) RecordOverdue(ctx context.Context, owner model.UserKey) (int, error) {
	return a.bump(ctx, owner, func(rec *model.CompletionRecord) int {
		rec.Overdue++
		return rec.Overdue
	})
}

// RecordCompletion bumps owner's completed counter by one, leaving the
// overdue counter untouched, and returns the new completed count.
func (a *Accountant) RecordCompletion(ctx context.Context, owner model.UserKey) (int, error) {
	return a.bump(ctx, owner, func(rec *model.CompletionRecord) int {
		rec.Completed++
		return rec.Completed
	})
}

func (a *Accountant) bump(ctx context.Context, owner model.UserKey, mutate func(*model.CompletionRecord) int) (int, error) {
	records, err := a.store.ListCompletions(ctx)
	if err != nil {
		return 0, err
	}
	records = reconcile.DedupeCompletions(records)

	idx := -1
	for i := range records {
		if records[i].Owner == owner {
			idx = i
			break
		}
	}
	if idx == -1 {
		records = append(records, model.CompletionRecord{Owner: owner})
		idx = len(records) - 1
	}
	count := mutate(&records[idx])

	if err := a.store.ReplaceCompletions(ctx, records); err != nil {
		return 0, err
	}
	a.invalidate()
	return count, nil
}

// Normalize rewrites the completion table as exactly one three-cell row
// per user, coercing missing counters to zero. It runs on every slow poll
// to repair drift from manual sheet edits, and writes back unconditionally
// even when nothing changed.
func (a *Accountant) Normalize(ctx context.Context) error {
	records, err := a.store.ListCompletions(ctx)
	if err != nil {
		return err
	}
	before := len(records)
	records = reconcile.DedupeCompletions(records)
	if dropped := before - len(records); dropped > 0 {
		a.logger.Info("collapsed duplicate completion rows", "dropped", dropped)
	}

	if err := a.store.ReplaceCompletions(ctx, records); err != nil {
		return err
	}
	a.invalidate()
	return nil
}

func (a *Accountant) invalidate() {
	if a.cache != nil {
		a.cache.Invalidate(cache.KeyCompletions)
	}
}
