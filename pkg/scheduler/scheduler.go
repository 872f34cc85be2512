// Package scheduler runs the bot's two poll drivers: a fast loop that
// watches the completion sheet and announces new completions, and a slow
// loop that reminds owners about new, approaching and overdue deadlines.
// The drivers share no lock and may overlap on store calls; the store's
// full-read/dedupe/full-write discipline is what keeps repeated cycles
// self-healing.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/harrisonrobin/sunsine/pkg/model"
	"github.com/harrisonrobin/sunsine/pkg/notify"
	"github.com/harrisonrobin/sunsine/pkg/overdue"
	"github.com/harrisonrobin/sunsine/pkg/reconcile"
	"github.com/harrisonrobin/sunsine/pkg/store"
)

// Config holds the two driver periods.
type Config struct {
	FastInterval time.Duration // completion poll
	SlowInterval time.Duration // task/deadline poll
}

func DefaultConfig() Config {
	return Config{
		FastInterval: time.Minute,
		SlowInterval: 10 * time.Minute,
	}
}

// Scheduler owns both drivers and the completion snapshot.
type Scheduler struct {
	store      store.Store
	notifier   notify.Notifier
	accountant *overdue.Accountant
	config     Config
	logger     *slog.Logger

	// snapshot is the last-observed completed count per user. It belongs
	// to the fast driver alone and is replaced wholesale every cycle,
	// never partially mutated. nil means "not primed yet": the first
	// successful fetch only sets the baseline and announces nothing.
	snapshot map[model.UserKey]int

	wg       sync.WaitGroup
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
}

func New(s store.Store, n notify.Notifier, a *overdue.Accountant, config Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:      s,
		notifier:   n,
		accountant: a,
		config:     config,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start launches both drivers. They run until Stop is called or ctx is
// cancelled; there is no other cancellation path.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(2)
	go s.runFast(ctx)
	go s.runSlow(ctx)

	s.logger.Info("scheduler started",
		"fast_interval", s.config.FastInterval,
		"slow_interval", s.config.SlowInterval,
	)
}

// Stop halts both drivers and waits for in-flight cycles to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runFast(ctx context.Context) {
	defer s.wg.Done()

	// Prime the snapshot before the first tick so counts that existed
	// before startup are not re-announced.
	s.FastCycle(ctx, time.Now())

	ticker := time.NewTicker(s.config.FastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			s.FastCycle(ctx, now)
		}
	}
}

func (s *Scheduler) runSlow(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SlowInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			s.SlowCycle(ctx, now)
		}
	}
}

// FastCycle runs one completion poll: fetch, diff against the snapshot,
// announce each increment, then replace the snapshot unconditionally —
// even when some announcements failed, so one flaky send cannot cause a
// re-announcement storm on the next tick.
func (s *Scheduler) FastCycle(ctx context.Context, now time.Time) {
	records, err := s.store.ListCompletions(ctx)
	if err != nil {
		s.logger.Error("completion poll failed", "error", err)
		return
	}
	current := reconcile.Snapshot(records)

	if s.snapshot != nil {
		for _, inc := range reconcile.DiffCompletions(s.snapshot, current) {
			if err := s.notifier.SendChannel(completionAnnouncement(inc)); err != nil {
				s.logger.Error("completion announcement failed", "user", inc.Owner, "error", err)
			}
		}
	}
	s.snapshot = current
}

// SlowCycle runs one task poll: classify every task, DM owners of new and
// approaching deadlines (new phrasing wins when both apply), record and DM
// each overdue task, post the channel summary, then run the normalization
// pass unconditionally. Every dispatch failure is per-item: log and keep
// going.
func (s *Scheduler) SlowCycle(ctx context.Context, now time.Time) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		s.logger.Error("task poll failed", "error", err)
		return
	}
	tasks = reconcile.DedupeTasks(tasks)
	c := reconcile.ClassifyTasks(tasks, now)

	notified := make(map[string]bool)
	for _, t := range c.NewlyAssigned {
		notified[identity(t)] = true
		if err := s.notifier.SendDirect(t.Owner, newTaskMessage(t)); err != nil {
			s.logger.Error("new-task DM failed", "user", t.Owner, "task", t.Name, "error", err)
		}
	}
	for _, t := range c.ApproachingDeadline {
		if notified[identity(t)] {
			continue
		}
		if err := s.notifier.SendDirect(t.Owner, reminderMessage(t)); err != nil {
			s.logger.Error("reminder DM failed", "user", t.Owner, "task", t.Name, "error", err)
		}
	}

	for _, t := range c.Overdue {
		count, err := s.accountant.RecordOverdue(ctx, t.Owner)
		if err != nil {
			s.logger.Error("overdue accounting failed", "user", t.Owner, "task", t.Name, "error", err)
			count = -1 // unknown
		}
		if err := s.notifier.SendDirect(t.Owner, overdueMessage(t, count)); err != nil {
			s.logger.Error("overdue DM failed", "user", t.Owner, "task", t.Name, "error", err)
		}
	}

	if len(tasks) > 0 {
		if err := s.notifier.SendChannel(taskSummary(tasks)); err != nil {
			s.logger.Error("task summary post failed", "error", err)
		}
	}

	if err := s.accountant.Normalize(ctx); err != nil {
		s.logger.Error("completion table normalization failed", "error", err)
	}
}

func identity(t model.Task) string {
	return t.Name + "\x00" + string(t.Owner)
}
