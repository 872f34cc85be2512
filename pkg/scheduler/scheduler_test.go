package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/sunsine/pkg/model"
	"github.com/harrisonrobin/sunsine/pkg/overdue"
)

type fakeStore struct {
	tasks       []model.Task
	completions []model.CompletionRecord

	listTasksErr       error
	listCompletionsErr error
	replaceCalls       int
}

func (f *fakeStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	if f.listTasksErr != nil {
		return nil, f.listTasksErr
	}
	return f.tasks, nil
}

func (f *fakeStore) ListCompletions(ctx context.Context) ([]model.CompletionRecord, error) {
	if f.listCompletionsErr != nil {
		return nil, f.listCompletionsErr
	}
	out := make([]model.CompletionRecord, len(f.completions))
	copy(out, f.completions)
	return out, nil
}

func (f *fakeStore) ReplaceTasks(ctx context.Context, tasks []model.Task) error { return nil }

func (f *fakeStore) ReplaceCompletions(ctx context.Context, records []model.CompletionRecord) error {
	f.replaceCalls++
	f.completions = records
	return nil
}

func (f *fakeStore) AppendTask(ctx context.Context, task model.Task) error { return nil }

func (f *fakeStore) AppendCompletionLog(ctx context.Context, entry model.LogEntry) error {
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, name string, owner model.UserKey) error {
	return nil
}

type fakeNotifier struct {
	directs    map[model.UserKey][]string
	channel    []string
	directErr  error
	channelErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{directs: make(map[model.UserKey][]string)}
}

func (f *fakeNotifier) SendDirect(owner model.UserKey, text string) error {
	if f.directErr != nil {
		return f.directErr
	}
	f.directs[owner] = append(f.directs[owner], text)
	return nil
}

func (f *fakeNotifier) SendChannel(text string) error {
	if f.channelErr != nil {
		return f.channelErr
	}
	f.channel = append(f.channel, text)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScheduler(fs *fakeStore, fn *fakeNotifier) *Scheduler {
	acc := overdue.NewAccountant(fs, nil, discard())
	return New(fs, fn, acc, DefaultConfig(), discard())
}

func TestFastCyclePrimesWithoutAnnouncing(t *testing.T) {
	fs := &fakeStore{completions: []model.CompletionRecord{{Owner: "u1", Completed: 4}}}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)
	now := time.Now()

	// First cycle only sets the baseline, even with positive counts present.
	s.FastCycle(context.Background(), now)
	assert.Empty(t, fn.channel)

	// A later bump is announced once.
	fs.completions[0].Completed = 5
	s.FastCycle(context.Background(), now.Add(time.Minute))
	require.Len(t, fn.channel, 1)
	assert.Contains(t, fn.channel[0], "u1")
	assert.Contains(t, fn.channel[0], "5")

	// Steady state announces nothing.
	s.FastCycle(context.Background(), now.Add(2*time.Minute))
	assert.Len(t, fn.channel, 1)
}

func TestFastCycleReplacesSnapshotEvenWhenSendFails(t *testing.T) {
	fs := &fakeStore{completions: []model.CompletionRecord{{Owner: "u1", Completed: 1}}}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)
	now := time.Now()

	s.FastCycle(context.Background(), now)

	fs.completions[0].Completed = 2
	fn.channelErr = errors.New("discord down")
	s.FastCycle(context.Background(), now.Add(time.Minute))

	// The failed announcement is not retried on the next tick.
	fn.channelErr = nil
	s.FastCycle(context.Background(), now.Add(2*time.Minute))
	assert.Empty(t, fn.channel)
}

func TestFastCycleKeepsSnapshotOnReadError(t *testing.T) {
	fs := &fakeStore{completions: []model.CompletionRecord{{Owner: "u1", Completed: 1}}}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)
	now := time.Now()

	s.FastCycle(context.Background(), now)

	fs.completions[0].Completed = 2
	fs.listCompletionsErr = errors.New("sheet unavailable")
	s.FastCycle(context.Background(), now.Add(time.Minute))
	assert.Empty(t, fn.channel)

	// After the outage the diff is computed against the pre-outage
	// baseline, so the bump is still announced.
	fs.listCompletionsErr = nil
	s.FastCycle(context.Background(), now.Add(2*time.Minute))
	require.Len(t, fn.channel, 1)
}

func TestSlowCycleNewAndApproaching(t *testing.T) {
	now := time.Now()
	fs := &fakeStore{tasks: []model.Task{
		{Name: "fresh", Deadline: now.Add(5 * time.Minute), Owner: "u1"},
		{Name: "soon", Deadline: now.Add(11*time.Hour + 30*time.Minute), Owner: "u2"},
		{Name: "distant", Deadline: now.Add(72 * time.Hour), Owner: "u3"},
	}}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)

	s.SlowCycle(context.Background(), now)

	require.Len(t, fn.directs["u1"], 1)
	assert.Contains(t, fn.directs["u1"][0], "New task")
	require.Len(t, fn.directs["u2"], 1)
	assert.Contains(t, fn.directs["u2"][0], "12 hours")
	assert.Empty(t, fn.directs["u3"])

	// Channel summary lists every active task.
	require.Len(t, fn.channel, 1)
	assert.Contains(t, fn.channel[0], "fresh")
	assert.Contains(t, fn.channel[0], "distant")
}

func TestSlowCycleOverdueAccounting(t *testing.T) {
	now := time.Now()
	fs := &fakeStore{
		tasks:       []model.Task{{Name: "late", Deadline: now.Add(-time.Hour), Owner: "u1"}},
		completions: []model.CompletionRecord{{Owner: "u1", Completed: 2, Overdue: 1}},
	}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)

	s.SlowCycle(context.Background(), now)

	require.Len(t, fn.directs["u1"], 1)
	assert.Contains(t, fn.directs["u1"][0], "DEADLINE MISSED")
	assert.Contains(t, fn.directs["u1"][0], "2", "DM carries the new overdue count")
	assert.Equal(t, 2, fs.completions[0].Overdue)

	// One write from the bump, one from the normalization pass.
	assert.Equal(t, 2, fs.replaceCalls)
}

func TestSlowCycleOverdueDMSurvivesAccountingError(t *testing.T) {
	now := time.Now()
	fs := &fakeStore{
		tasks:              []model.Task{{Name: "late", Deadline: now.Add(-time.Hour), Owner: "u1"}},
		listCompletionsErr: errors.New("sheet unavailable"),
	}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)

	s.SlowCycle(context.Background(), now)

	require.Len(t, fn.directs["u1"], 1)
	assert.Contains(t, fn.directs["u1"][0], "unknown")
}

func TestSlowCycleDedupesTaskRows(t *testing.T) {
	now := time.Now()
	fs := &fakeStore{tasks: []model.Task{
		{Name: "fresh", Deadline: now, Owner: "u1"},
		{Name: "fresh", Deadline: now, Owner: "u1"},
	}}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)

	s.SlowCycle(context.Background(), now)
	assert.Len(t, fn.directs["u1"], 1, "duplicate rows must not double the DM")
}

func TestSlowCycleNoSummaryWithoutTasks(t *testing.T) {
	fs := &fakeStore{}
	fn := newFakeNotifier()
	s := newScheduler(fs, fn)

	s.SlowCycle(context.Background(), time.Now())
	assert.Empty(t, fn.channel)
}

func TestStartStop(t *testing.T) {
	fs := &fakeStore{}
	fn := newFakeNotifier()
	acc := overdue.NewAccountant(fs, nil, discard())
	s := New(fs, fn, acc, Config{FastInterval: time.Hour, SlowInterval: time.Hour}, discard())

	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx) // second Start is a no-op
	s.Stop()
	s.Stop() // second Stop is a no-op
}
