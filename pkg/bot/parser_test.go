package bot

import (
	"testing"
	"time"
)

func TestParseAddEntriesSingle(t *testing.T) {
	tasks, failed := ParseAddEntries("write report 01-06-25 u1", time.UTC)
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Name != "write report" || tasks[0].Owner != "u1" {
		t.Errorf("unexpected task %+v", tasks[0])
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !tasks[0].Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", tasks[0].Deadline, want)
	}
}

func TestParseAddEntriesMultiple(t *testing.T) {
	input := "write report 01-06-25 alice / review PR 02-06-25 bob#1234 end."
	tasks, failed := ParseAddEntries(input, time.UTC)
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[1].Owner != "bob#1234" {
		t.Errorf("legacy tag owner = %q", tasks[1].Owner)
	}
}

func TestParseAddEntriesTrailingEnd(t *testing.T) {
	for _, input := range []string{
		"write report 01-06-25 u1 end",
		"write report 01-06-25 u1 end.",
	} {
		tasks, failed := ParseAddEntries(input, time.UTC)
		if len(failed) != 0 || len(tasks) != 1 {
			t.Errorf("ParseAddEntries(%q) = %d tasks %d failed", input, len(tasks), len(failed))
			continue
		}
		if tasks[0].Name != "write report" {
			t.Errorf("end marker leaked into name: %q", tasks[0].Name)
		}
	}
}

func TestParseAddEntriesBadSyntax(t *testing.T) {
	tasks, failed := ParseAddEntries("no date here u1 / fix bug 03-06-25 carol", time.UTC)
	if len(tasks) != 1 {
		t.Fatalf("good entry should survive a bad sibling, got %d tasks", len(tasks))
	}
	if len(failed) != 1 {
		t.Fatalf("got %d failures, want 1", len(failed))
	}
	if tasks[0].Name != "fix bug" {
		t.Errorf("surviving task = %+v", tasks[0])
	}
}

func TestParseAddEntriesInvalidDate(t *testing.T) {
	_, failed := ParseAddEntries("write report 32-13-25 u1", time.UTC)
	if len(failed) != 1 {
		t.Fatalf("got %d failures, want 1", len(failed))
	}
}

func TestParseAddEntriesEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "end.", " end. "} {
		tasks, failed := ParseAddEntries(input, time.UTC)
		if len(tasks) != 0 || len(failed) != 0 {
			t.Errorf("ParseAddEntries(%q) = %d tasks %d failed, want none", input, len(tasks), len(failed))
		}
	}
}
