package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UserKey is the stable identifier for a task owner. Depending on how the
// sheet was filled in it is either a Discord user ID (all digits) or a
// username, so it stays opaque here.
type UserKey string

// Numeric reports whether the key looks like a Discord snowflake ID.
func (k UserKey) Numeric() bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Task is one row of the task sheet. Identity is the (Name, Owner) pair;
// there is no surrogate id. The sheet does not enforce uniqueness, so
// duplicate identities must be tolerated downstream.
type Task struct {
	Name     string
	Deadline time.Time
	Owner    UserKey
}

// Is reports whether the task has the given identity.
func (t Task) Is(name string, owner UserKey) bool {
	return t.Name == name && t.Owner == owner
}

// CompletionRecord is one row of the completion sheet: per-user completed
// and overdue counters. The sheet may contain duplicate rows for a user;
// writes must restore the one-row-per-user invariant.
type CompletionRecord struct {
	Owner     UserKey
	Completed int
	Overdue   int
}

// LogEntry is one row of the append-only completion log.
type LogEntry struct {
	TaskName    string
	Owner       UserKey
	CompletedAt string // local wall-clock string, never parsed back
}

// Deadline cell formats seen in the wild. The add command writes dateOnly;
// humans editing the sheet tend to add a time of day.
const (
	deadlineLayout = "2006-01-02 15:04"
	dateOnlyLayout = "2006-01-02"
)

// ParseDeadline parses a deadline cell in the sheet's local time.
func ParseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty deadline")
	}
	for _, layout := range []string{deadlineLayout, dateOnlyLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized deadline %q", s)
}

// FormatDeadline renders a deadline the way the sheet stores it.
func FormatDeadline(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format(dateOnlyLayout)
	}
	return t.Format(deadlineLayout)
}

// ParseTaskRow coerces a raw sheet row into a Task. Rows with missing
// fields or an unparseable deadline are rejected so callers can skip them.
func ParseTaskRow(cells []string) (Task, error) {
	if len(cells) < 3 {
		return Task{}, fmt.Errorf("task row has %d of 3 fields", len(cells))
	}
	name := strings.TrimSpace(cells[0])
	owner := strings.TrimSpace(cells[2])
	if name == "" || owner == "" {
		return Task{}, fmt.Errorf("task row missing name or owner")
	}
	deadline, err := ParseDeadline(cells[1])
	if err != nil {
		return Task{}, err
	}
	return Task{Name: name, Deadline: deadline, Owner: UserKey(owner)}, nil
}

// Row renders the task as a sheet row.
func (t Task) Row() []string {
	return []string{t.Name, FormatDeadline(t.Deadline), string(t.Owner)}
}

// ParseCompletionRow coerces a raw sheet row into a CompletionRecord.
// Missing or non-numeric counters default to zero; only a missing owner
// makes the row unusable.
func ParseCompletionRow(cells []string) (CompletionRecord, error) {
	if len(cells) < 1 || strings.TrimSpace(cells[0]) == "" {
		return CompletionRecord{}, fmt.Errorf("completion row missing owner")
	}
	rec := CompletionRecord{Owner: UserKey(strings.TrimSpace(cells[0]))}
	if len(cells) > 1 {
		rec.Completed = parseCount(cells[1])
	}
	if len(cells) > 2 {
		rec.Overdue = parseCount(cells[2])
	}
	return rec, nil
}

// Row renders the record as exactly three string-typed cells, the shape the
// normalization pass writes back.
func (r CompletionRecord) Row() []string {
	return []string{string(r.Owner), strconv.Itoa(r.Completed), strconv.Itoa(r.Overdue)}
}

// Row renders the log entry as a sheet row.
func (e LogEntry) Row() []string {
	return []string{e.TaskName, string(e.Owner), e.CompletedAt}
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
