package store

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/sheets/v4"

	"github.com/harrisonrobin/sunsine/pkg/model"
)

// Sheet ranges. Row 1 of the task and completion sheets is a header; the
// completion log is plain append.
const (
	tasksRange       = "A2:C" // task name | deadline | owner
	completionsRange = "A2:C" // owner | completed count | overdue count
	logRange         = "A:C"  // task name | owner | completed at
)

// SheetsStore implements Store against three Google spreadsheets.
type SheetsStore struct {
	srv            *sheets.Service
	tasksID        string
	completionsID  string
	completionsLog string
	logger         *slog.Logger
}

func NewSheetsStore(srv *sheets.Service, tasksID, completionsID, logID string, logger *slog.Logger) *SheetsStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsStore{
		srv:            srv,
		tasksID:        tasksID,
		completionsID:  completionsID,
		completionsLog: logID,
		logger:         logger,
	}
}

// ListTasks reads the task sheet. Malformed rows are logged and skipped,
// not treated as errors: a human deleting a cell must not take the bot down.
func (s *SheetsStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.readRange(ctx, s.tasksID, tasksRange)
	if err != nil {
		return nil, &ReadError{Op: "tasks", Err: err}
	}

	tasks := make([]model.Task, 0, len(rows))
	for i, row := range rows {
		task, err := model.ParseTaskRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed task row", "row", i+2, "error", err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ListCompletions reads the completion sheet, skipping rows without an
// owner. Duplicate owners are returned as-is; deduplication is the
// caller's job.
func (s *SheetsStore) ListCompletions(ctx context.Context) ([]model.CompletionRecord, error) {
	rows, err := s.readRange(ctx, s.completionsID, completionsRange)
	if err != nil {
		return nil, &ReadError{Op: "completions", Err: err}
	}

	records := make([]model.CompletionRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := model.ParseCompletionRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed completion row", "row", i+2, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SheetsStore) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	values := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		values = append(values, cells(t.Row()))
	}
	if err := s.replaceRange(ctx, s.tasksID, tasksRange, values); err != nil {
		return &WriteError{Op: "tasks", Err: err}
	}
	return nil
}

func (s *SheetsStore) ReplaceCompletions(ctx context.Context, records []model.CompletionRecord) error {
	values := make([][]any, 0, len(records))
	for _, r := range records {
		values = append(values, cells(r.Row()))
	}
	if err := s.replaceRange(ctx, s.completionsID, completionsRange, values); err != nil {
		return &WriteError{Op: "completions", Err: err}
	}
	return nil
}

func (s *SheetsStore) AppendTask(ctx context.Context, task model.Task) error {
	if err := s.appendRange(ctx, s.tasksID, tasksRange, cells(task.Row())); err != nil {
		return &WriteError{Op: "append task", Err: err}
	}
	return nil
}

func (s *SheetsStore) AppendCompletionLog(ctx context.Context, entry model.LogEntry) error {
	if err := s.appendRange(ctx, s.completionsLog, logRange, cells(entry.Row())); err != nil {
		return &WriteError{Op: "append completion log", Err: err}
	}
	return nil
}

// DeleteTask removes the matching row with a read-filter-replace pass and
// then verifies the row is really gone. The sheet API will happily report
// success on a write that silently did nothing, so the re-read is the only
// way to know the delete took.
func (s *SheetsStore) DeleteTask(ctx context.Context, name string, owner model.UserKey) error {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return err
	}

	kept := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Is(name, owner) {
			kept = append(kept, t)
		}
	}
	if err := s.ReplaceTasks(ctx, kept); err != nil {
		return err
	}

	after, err := s.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range after {
		if t.Is(name, owner) {
			return &VerificationError{Op: fmt.Sprintf("task %q for %s still present after delete", name, owner)}
		}
	}
	return nil
}

func (s *SheetsStore) readRange(ctx context.Context, sheetID, rng string) ([][]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// replaceRange is the backend's only mutation primitive for tabular data:
// clear the whole range, then write the new rows.
func (s *SheetsStore) replaceRange(ctx context.Context, sheetID, rng string, values [][]any) error {
	if _, err := s.srv.Spreadsheets.Values.Clear(sheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	if len(values) == 0 {
		return nil
	}
	_, err := s.srv.Spreadsheets.Values.Update(sheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (s *SheetsStore) appendRange(ctx context.Context, sheetID, rng string, row []any) error {
	_, err := s.srv.Spreadsheets.Values.Append(sheetID, rng, &sheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	return err
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = c
	}
	return out
}
