package store

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/sunsine/pkg/model"
)

// Store is the bot's view of the spreadsheet backend. The backend has no
// transactions and no row-level patching: every mutation of the task or
// completion tables is a full-range replace, and other writers (humans
// editing the sheet, a second bot instance) may race with us at any time.
// Callers are expected to treat reads as possibly stale and writes as
// last-writer-wins.
type Store interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	ListCompletions(ctx context.Context) ([]model.CompletionRecord, error)

	// ReplaceTasks and ReplaceCompletions clear the addressed range and
	// rewrite it wholesale.
	ReplaceTasks(ctx context.Context, tasks []model.Task) error
	ReplaceCompletions(ctx context.Context, records []model.CompletionRecord) error

	AppendTask(ctx context.Context, task model.Task) error
	AppendCompletionLog(ctx context.Context, entry model.LogEntry) error

	// DeleteTask removes the row matching (name, owner) via
	// read-filter-replace, then re-reads to verify the row is gone.
	DeleteTask(ctx context.Context, name string, owner model.UserKey) error
}

// ReadError wraps a failure to fetch rows from the backend.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("store read %s: %v", e.Op, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a failure to write rows to the backend.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("store write %s: %v", e.Op, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// VerificationError means a write reported success but a follow-up read
// shows the old state, e.g. a deleted task row that is still present.
type VerificationError struct {
	Op string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("store verification failed: %s", e.Op)
}
