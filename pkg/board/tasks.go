package board

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stefanpenner/tempo/pkg/plan"
)

// Task is one line item of a goal's details.
type Task struct {
	PlanID string
	GoalID string
	ID     string // {goalId}-{index}
	Index  int
	Text   string
}

var bulletPrefix = regexp.MustCompile(`^(?:[-*+•·]+\s*|\d+[.)]\s+)`)

// DeriveTasks splits a goal's details into tasks. Bullet and numbering
// prefixes are stripped and empty lines dropped; Index counts surviving
// lines only, so blank lines do not shift ids.
func DeriveTasks(planID string, g plan.Goal) []Task {
	goalID := plan.NormalizeID(g.ID)
	var tasks []Task
	for _, line := range strings.Split(g.Details, "\n") {
		text := strings.TrimSpace(line)
		text = strings.TrimSpace(bulletPrefix.ReplaceAllString(text, ""))
		if text == "" {
			continue
		}
		idx := len(tasks)
		tasks = append(tasks, Task{
			PlanID: plan.NormalizeID(planID),
			GoalID: goalID,
			ID:     TaskID(goalID, idx),
			Index:  idx,
			Text:   text,
		})
	}
	return tasks
}

// TaskID builds the positional id of the index-th task of a goal.
func TaskID(goalID string, index int) string {
	return fmt.Sprintf("%s-%d", plan.NormalizeID(goalID), index)
}
