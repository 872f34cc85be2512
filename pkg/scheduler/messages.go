package scheduler

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/sunsine/pkg/model"
	"github.com/harrisonrobin/sunsine/pkg/reconcile"
)

func newTaskMessage(t model.Task) string {
	return fmt.Sprintf("🎯 **New task for you!**\n\n**%s**\n⏰ Deadline: %s\n\nGet on it!",
		t.Name, model.FormatDeadline(t.Deadline))
}

func reminderMessage(t model.Task) string {
	return fmt.Sprintf("⚠️ **12 hours left!**\n\n**%s**\n⏰ Deadline: %s\n\nHurry up before it slips!",
		t.Name, model.FormatDeadline(t.Deadline))
}

func overdueMessage(t model.Task, overdueCount int) string {
	countLine := "Overdue count: unknown (sheet unavailable)"
	if overdueCount >= 0 {
		countLine = fmt.Sprintf("You have missed **%d** deadline(s) so far.", overdueCount)
	}
	return fmt.Sprintf("⚠️ **DEADLINE MISSED!**\n\n**%s**\n⏰ Deadline was: %s\n\n%s",
		t.Name, model.FormatDeadline(t.Deadline), countLine)
}

func completionAnnouncement(inc reconcile.Increment) string {
	mention := string(inc.Owner)
	if inc.Owner.Numeric() {
		mention = fmt.Sprintf("<@%s>", inc.Owner)
	}
	return fmt.Sprintf("🎉 %s finished a task! Total completed: **%d**", mention, inc.Count)
}

func taskSummary(tasks []model.Task) string {
	var b strings.Builder
	b.WriteString("**Active tasks:**\n")
	for _, t := range tasks {
		owner := string(t.Owner)
		if t.Owner.Numeric() {
			owner = fmt.Sprintf("<@%s>", t.Owner)
		}
		fmt.Fprintf(&b, "• **%s** (%s) - due %s\n", t.Name, owner, model.FormatDeadline(t.Deadline))
	}
	return b.String()
}
