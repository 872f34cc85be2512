// Package bot wires the chat commands to the sheet store and the
// accounting layer. Handlers are deliberately forgiving: a failed command
// replies with an apology and logs; it never takes the process down.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/harrisonrobin/sunsine/pkg/model"
	"github.com/harrisonrobin/sunsine/pkg/overdue"
	"github.com/harrisonrobin/sunsine/pkg/reconcile"
	"github.com/harrisonrobin/sunsine/pkg/store"
)

const prefix = "!"

// Leaderboard weights: completing is worth 5, missing a deadline costs 6.
const (
	completedWeight = 5
	overdueWeight   = 6
)

type Bot struct {
	session    *discordgo.Session
	store      store.Store
	accountant *overdue.Accountant
	addRoles   []string
	loc        *time.Location
	startTime  time.Time
	logger     *slog.Logger
}

func New(session *discordgo.Session, s store.Store, a *overdue.Accountant, addRoles []string, loc *time.Location, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		session:    session,
		store:      s,
		accountant: a,
		addRoles:   addRoles,
		loc:        loc,
		startTime:  time.Now(),
		logger:     logger,
	}
}

// Register attaches the message handler to the session.
func (b *Bot) Register() {
	b.session.AddHandler(b.onMessage)
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, prefix))
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	args := fields[1:]

	b.logger.Info("command received", "command", command, "user", m.Author.Username)

	ctx := context.Background()
	switch command {
	case "ping":
		b.handlePing(m)
	case "stats":
		b.handleStats(ctx, m)
	case "tasks":
		b.handleTasks(ctx, m)
	case "complete":
		b.handleComplete(ctx, m)
	case "rank":
		b.handleRank(ctx, m)
	case "add":
		b.handleAdd(ctx, m, strings.Join(args, " "))
	case "help":
		b.reply(m, helpMessage())
	default:
		b.logger.Warn("unknown command", "command", command)
	}
}

func (b *Bot) handlePing(m *discordgo.MessageCreate) {
	uptime := time.Since(b.startTime).Round(time.Second)
	b.reply(m, fmt.Sprintf("🏓 **Pong!**\n⏱️ Latency: **%s**\n⏰ Uptime: **%s**",
		b.session.HeartbeatLatency().Round(time.Millisecond), uptime))
}

func (b *Bot) handleStats(ctx context.Context, m *discordgo.MessageCreate) {
	records, err := b.store.ListCompletions(ctx)
	if err != nil {
		b.logger.Error("stats fetch failed", "error", err)
		b.reply(m, "❌ Could not read the completion sheet, try again later.")
		return
	}

	var rec model.CompletionRecord
	for _, r := range reconcile.DedupeCompletions(records) {
		if b.ownedBy(r.Owner, m.Author) {
			rec = r
			break
		}
	}

	feedback := "All square — push it toward the completed side!"
	if rec.Completed > rec.Overdue {
		feedback = "More done than missed, keep it up! 😎"
	} else if rec.Completed < rec.Overdue {
		feedback = "Too many missed deadlines — time to catch up! ⏰"
	}
	b.reply(m, fmt.Sprintf("📊 **Your stats**\n\n✅ Completed: **%d**\n❌ Overdue: **%d**\n\n%s",
		rec.Completed, rec.Overdue, feedback))
}

func (b *Bot) handleTasks(ctx context.Context, m *discordgo.MessageCreate) {
	mine, err := b.ownTasks(ctx, m.Author)
	if err != nil {
		b.logger.Error("task fetch failed", "error", err)
		b.reply(m, "❌ Could not read the task sheet, try again later.")
		return
	}
	if len(mine) == 0 {
		b.reply(m, "You have no tasks. Enjoy the peace while it lasts 😴")
		return
	}

	var sb strings.Builder
	sb.WriteString("**📋 Your tasks:**\n")
	for _, t := range mine {
		fmt.Fprintf(&sb, "• **%s** - due %s\n", t.Name, model.FormatDeadline(t.Deadline))
	}
	b.reply(m, sb.String())
}

// handleComplete marks the author's first listed task as done: bump the
// completed counter, append an audit log row, then delete the task row.
// The three writes are independent; a later failure does not roll back an
// earlier one, it only changes the reply.
func (b *Bot) handleComplete(ctx context.Context, m *discordgo.MessageCreate) {
	mine, err := b.ownTasks(ctx, m.Author)
	if err != nil {
		b.logger.Error("task fetch failed", "error", err)
		b.reply(m, "❌ Could not read the task sheet, try again later.")
		return
	}
	if len(mine) == 0 {
		b.reply(m, "You have no tasks. Enjoy the peace while it lasts 😴")
		return
	}
	task := mine[0]

	if _, err := b.accountant.RecordCompletion(ctx, task.Owner); err != nil {
		b.logger.Error("completion accounting failed", "user", task.Owner, "error", err)
		b.reply(m, "❌ Could not update your completion count, try again later.")
		return
	}

	entry := model.LogEntry{
		TaskName:    task.Name,
		Owner:       task.Owner,
		CompletedAt: time.Now().In(b.loc).Format("2006-01-02 15:04:05"),
	}
	if err := b.store.AppendCompletionLog(ctx, entry); err != nil {
		// The audit trail is best-effort; the count already went up.
		b.logger.Error("completion log append failed", "task", task.Name, "error", err)
	}

	if err := b.store.DeleteTask(ctx, task.Name, task.Owner); err != nil {
		b.logger.Error("task delete failed", "task", task.Name, "error", err)
		b.reply(m, fmt.Sprintf("Task **%s** was counted as done, but removing it from the list failed. It may reappear — ping an admin.", task.Name))
		return
	}

	b.reply(m, fmt.Sprintf("Task **%s** completed and removed from your list. GG! 🎉", task.Name))
}

func (b *Bot) handleRank(ctx context.Context, m *discordgo.MessageCreate) {
	records, err := b.store.ListCompletions(ctx)
	if err != nil {
		b.logger.Error("rank fetch failed", "error", err)
		b.reply(m, "❌ Could not read the completion sheet, try again later.")
		return
	}
	records = reconcile.DedupeCompletions(records)
	if len(records) == 0 {
		b.reply(m, "No ranking data yet! 😴")
		return
	}

	type ranked struct {
		rec   model.CompletionRecord
		score int
	}
	ranking := make([]ranked, 0, len(records))
	for _, r := range records {
		ranking = append(ranking, ranked{rec: r, score: r.Completed*completedWeight - r.Overdue*overdueWeight})
	}
	sort.SliceStable(ranking, func(i, j int) bool { return ranking[i].score > ranking[j].score })

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("🏆 **Leaderboard** 🏆\n\n")
	for i, r := range ranking {
		medal := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			medal = medals[i]
		}
		fmt.Fprintf(&sb, "%s **%s**\n   Score: **%d** (✅ %d | ❌ %d)\n",
			medal, r.rec.Owner, r.score, r.rec.Completed, r.rec.Overdue)
	}
	fmt.Fprintf(&sb, "\n`Score = completed × %d - overdue × %d`", completedWeight, overdueWeight)
	b.reply(m, sb.String())
}

func (b *Bot) handleAdd(ctx context.Context, m *discordgo.MessageCreate, input string) {
	if !b.hasAddPermission(m) {
		b.reply(m, fmt.Sprintf("❌ You need one of these roles to add tasks: %s", strings.Join(b.addRoles, ", ")))
		return
	}

	tasks, failed := ParseAddEntries(input, b.loc)
	var added []string
	for _, t := range tasks {
		if err := b.store.AppendTask(ctx, t); err != nil {
			b.logger.Error("task append failed", "task", t.Name, "error", err)
			failed = append(failed, fmt.Sprintf("%q (write failed)", t.Name))
			continue
		}
		added = append(added, fmt.Sprintf("%q (due %s, for %s)", t.Name, model.FormatDeadline(t.Deadline), t.Owner))
	}

	var sb strings.Builder
	if len(added) > 0 {
		fmt.Fprintf(&sb, "✅ Added:\n%s\n", strings.Join(added, "\n"))
	}
	if len(failed) > 0 {
		fmt.Fprintf(&sb, "❌ Could not add:\n%s\n", strings.Join(failed, "\n"))
	}
	if sb.Len() == 0 {
		sb.WriteString("🤔 Nothing to add. Expected entries like `task name 31-12-25 username`, separated by `/`.")
	}
	b.reply(m, sb.String())
}

// hasAddPermission checks the author's roles against the configured allow
// list by role name.
func (b *Bot) hasAddPermission(m *discordgo.MessageCreate) bool {
	if m.Member == nil {
		return false
	}
	for _, roleID := range m.Member.Roles {
		role, err := b.session.State.Role(m.GuildID, roleID)
		if err != nil {
			continue
		}
		for _, allowed := range b.addRoles {
			if role.Name == allowed {
				return true
			}
		}
	}
	return false
}

// ownTasks returns the author's open tasks in sheet order. Sheet owner
// cells hold either a user ID or a username, so both are matched.
func (b *Bot) ownTasks(ctx context.Context, author *discordgo.User) ([]model.Task, error) {
	tasks, err := b.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	tasks = reconcile.DedupeTasks(tasks)

	var mine []model.Task
	for _, t := range tasks {
		if b.ownedBy(t.Owner, author) {
			mine = append(mine, t)
		}
	}
	return mine, nil
}

func (b *Bot) ownedBy(owner model.UserKey, author *discordgo.User) bool {
	key := string(owner)
	if i := strings.IndexByte(key, '#'); i > 0 {
		key = key[:i]
	}
	return key == author.ID || key == author.Username
}

func (b *Bot) reply(m *discordgo.MessageCreate, text string) {
	if _, err := b.session.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
		b.logger.Error("reply failed", "channel", m.ChannelID, "error", err)
	}
}

func helpMessage() string {
	return strings.Join([]string{
		"📚 **Commands**",
		"`!tasks` — list your open tasks",
		"`!complete` — mark your first task as done",
		"`!stats` — your completed/overdue counts",
		"`!rank` — the leaderboard",
		"`!add task name dd-mm-yy username / ...` — add tasks (restricted)",
		"`!ping` — latency and uptime",
	}, "\n")
}
