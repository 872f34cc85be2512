// Package reconcile holds the decision logic between two sheet fetches:
// which tasks deserve a notification, which completion counts went up, and
// how duplicate rows collapse before a write-back. Everything here is pure
// so it can be tested without a sheet or a clock.
package reconcile

import (
	"sort"
	"time"

	"github.com/harrisonrobin/sunsine/pkg/model"
)

const (
	// LookbackWindow decides what counts as a newly assigned task: a task
	// whose deadline timestamp sits within this window of now, on either
	// side. Keyed off deadline recency, not creation time — a task added
	// long ago whose deadline is edited to near-now reads as "new", and a
	// task added now with a far-future deadline never does. Inherited
	// behavior, kept on purpose.
	LookbackWindow = 10 * time.Minute

	// Reminder window: a deadline reminder fires when the deadline falls
	// between these two offsets from now. The window is one slow-poll
	// cycle wide on purpose; a deadline edited past the window between
	// polls is silently skipped.
	ReminderMin = 11 * time.Hour
	ReminderMax = 12 * time.Hour
)

// Classification buckets tasks by what, if anything, should happen to
// them this cycle. The buckets are computed independently: with externally
// edited deadlines a task can land in more than one.
type Classification struct {
	NewlyAssigned       []model.Task
	ApproachingDeadline []model.Task
	Overdue             []model.Task
}

// ClassifyTasks buckets tasks against now. A deadline exactly equal to
// now is not overdue (strictly after is required) and a deadline exactly
// at now±LookbackWindow still counts as newly assigned.
func ClassifyTasks(tasks []model.Task, now time.Time) Classification {
	var c Classification
	for _, t := range tasks {
		if !t.Deadline.Before(now.Add(-LookbackWindow)) && !t.Deadline.After(now.Add(LookbackWindow)) {
			c.NewlyAssigned = append(c.NewlyAssigned, t)
		}
		if !t.Deadline.Before(now.Add(ReminderMin)) && !t.Deadline.After(now.Add(ReminderMax)) {
			c.ApproachingDeadline = append(c.ApproachingDeadline, t)
		}
		if now.After(t.Deadline) {
			c.Overdue = append(c.Overdue, t)
		}
	}
	return c
}

// Increment is one completion-count bump worth announcing.
type Increment struct {
	Owner model.UserKey
	Count int // the new completed count
}

// DiffCompletions reports, per user, a count that rose since the previous
// snapshot: either the user is new to the snapshot with a positive count,
// or the count strictly increased. Equal or decreasing counts emit
// nothing — a count lowered by an external edit silently becomes the new
// baseline. Results are ordered by owner so announcements are stable.
func DiffCompletions(previous, current map[model.UserKey]int) []Increment {
	var incs []Increment
	for owner, count := range current {
		prev, seen := previous[owner]
		if (!seen && count > 0) || (seen && count > prev) {
			incs = append(incs, Increment{Owner: owner, Count: count})
		}
	}
	sort.Slice(incs, func(i, j int) bool { return incs[i].Owner < incs[j].Owner })
	return incs
}

// Snapshot collapses completion rows into the per-user completed-count map
// the fast driver keeps between polls. Duplicate rows for a user resolve
// first-occurrence-wins, matching DedupeCompletions.
func Snapshot(records []model.CompletionRecord) map[model.UserKey]int {
	snap := make(map[model.UserKey]int, len(records))
	for _, r := range records {
		if _, seen := snap[r.Owner]; !seen {
			snap[r.Owner] = r.Completed
		}
	}
	return snap
}

// DedupeCompletions collapses rows sharing an owner, keeping the first
// occurrence in input order. Run before every completion write-back to
// restore the one-row-per-user invariant the sheet itself does not enforce.
func DedupeCompletions(records []model.CompletionRecord) []model.CompletionRecord {
	seen := make(map[model.UserKey]bool, len(records))
	out := make([]model.CompletionRecord, 0, len(records))
	for _, r := range records {
		if seen[r.Owner] {
			continue
		}
		seen[r.Owner] = true
		out = append(out, r)
	}
	return out
}

// DedupeTasks collapses tasks sharing the (name, owner) identity, keeping
// the first occurrence in input order.
func DedupeTasks(tasks []model.Task) []model.Task {
	type identity struct {
		name  string
		owner model.UserKey
	}
	seen := make(map[identity]bool, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		id := identity{t.Name, t.Owner}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, t)
	}
	return out
}
