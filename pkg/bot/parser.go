package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrisonrobin/sunsine/pkg/model"
)

// An add entry is "task name dd-mm-yy owner", where the owner is a user ID,
// a username, or a legacy "name#1234" tag. Entries are separated by "/".
var entryPattern = regexp.MustCompile(`^(.*?)\s+(\d{2})-(\d{2})-(\d{2})\s+([^\s#]+(?:#\d{4})?)$`)

// ParseAddEntries splits the !add payload into tasks. A trailing "end" or
// "end." marker (habit carried over from the old sheet workflow) is
// stripped first. Entries that do not match the pattern are returned in
// failed with a reason, so the caller can report them without aborting
// the rest.
func ParseAddEntries(input string, loc *time.Location) (tasks []model.Task, failed []string) {
	input = strings.TrimSpace(input)
	lower := strings.ToLower(input)
	if strings.HasSuffix(lower, " end.") {
		input = strings.TrimSpace(input[:len(input)-len(" end.")])
	} else if strings.HasSuffix(lower, " end") {
		input = strings.TrimSpace(input[:len(input)-len(" end")])
	}
	if input == "" || strings.EqualFold(input, "end.") {
		return nil, nil
	}

	for _, entry := range strings.Split(input, "/") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		m := entryPattern.FindStringSubmatch(entry)
		if m == nil {
			failed = append(failed, fmt.Sprintf("`%s` (bad syntax)", entry))
			continue
		}

		day, _ := strconv.Atoi(m[2])
		month, _ := strconv.Atoi(m[3])
		year, _ := strconv.Atoi(m[4])
		deadline := time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, loc)
		if deadline.Day() != day || deadline.Month() != time.Month(month) {
			failed = append(failed, fmt.Sprintf("`%s` (invalid date)", entry))
			continue
		}

		tasks = append(tasks, model.Task{
			Name:     strings.TrimSpace(m[1]),
			Deadline: deadline,
			Owner:    model.UserKey(m[5]),
		})
	}
	return tasks, failed
}
