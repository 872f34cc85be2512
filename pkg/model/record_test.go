package model

import (
	"testing"
	"time"
)

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-06-01 14:30", time.Date(2025, 6, 1, 14, 30, 0, 0, time.Local), true},
		{"2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), true},
		{"  2025-06-01  ", time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), true},
		{"", time.Time{}, false},
		{"tomorrow", time.Time{}, false},
		{"01-06-2025", time.Time{}, false},
	}
	for _, tt := range tests {
		got, err := ParseDeadline(tt.in)
		if tt.ok && err != nil {
			t.Errorf("ParseDeadline(%q) error: %v", tt.in, err)
			continue
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("ParseDeadline(%q) expected error", tt.in)
			}
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseDeadline(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatDeadlineRoundTrip(t *testing.T) {
	for _, s := range []string{"2025-06-01", "2025-06-01 14:30"} {
		parsed, err := ParseDeadline(s)
		if err != nil {
			t.Fatalf("ParseDeadline(%q): %v", s, err)
		}
		if got := FormatDeadline(parsed); got != s {
			t.Errorf("FormatDeadline(ParseDeadline(%q)) = %q", s, got)
		}
	}
}

func TestParseTaskRow(t *testing.T) {
	task, err := ParseTaskRow([]string{"write report", "2025-06-01 14:30", "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Name != "write report" || task.Owner != "u1" {
		t.Errorf("unexpected task %+v", task)
	}

	bad := [][]string{
		{"write report", "2025-06-01"},        // too short
		{"", "2025-06-01", "u1"},              // no name
		{"write report", "2025-06-01", "  "},  // no owner
		{"write report", "not a date", "u1"},  // bad deadline
	}
	for _, cells := range bad {
		if _, err := ParseTaskRow(cells); err == nil {
			t.Errorf("ParseTaskRow(%v) expected error", cells)
		}
	}
}

func TestParseCompletionRow(t *testing.T) {
	rec, err := ParseCompletionRow([]string{"u1", "3", "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Completed != 3 || rec.Overdue != 2 {
		t.Errorf("unexpected record %+v", rec)
	}

	// Missing or garbage counters coerce to zero.
	rec, err = ParseCompletionRow([]string{"u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Completed != 0 || rec.Overdue != 0 {
		t.Errorf("missing counters should be zero, got %+v", rec)
	}
	rec, _ = ParseCompletionRow([]string{"u1", "lots", "-4"})
	if rec.Completed != 0 || rec.Overdue != 0 {
		t.Errorf("unparseable counters should be zero, got %+v", rec)
	}

	if _, err := ParseCompletionRow([]string{"  "}); err == nil {
		t.Error("expected error for missing owner")
	}
}

func TestCompletionRecordRow(t *testing.T) {
	row := CompletionRecord{Owner: "u1", Completed: 3, Overdue: 2}.Row()
	want := []string{"u1", "3", "2"}
	if len(row) != len(want) {
		t.Fatalf("Row() = %v, want %v", row, want)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("Row()[%d] = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestUserKeyNumeric(t *testing.T) {
	tests := []struct {
		key  UserKey
		want bool
	}{
		{"123456789012345678", true},
		{"0", true},
		{"", false},
		{"alice", false},
		{"alice#1234", false},
		{"12a34", false},
	}
	for _, tt := range tests {
		if got := tt.key.Numeric(); got != tt.want {
			t.Errorf("UserKey(%q).Numeric() = %v, want %v", tt.key, got, tt.want)
		}
	}
}
