package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/tempo/pkg/api"
	"github.com/stefanpenner/tempo/pkg/board"
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/store"
	"github.com/stefanpenner/tempo/pkg/tui"
)

var (
	moveStart    string
	moveDuration time.Duration
	moveTitle    string
	moveType     string
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List goals on the board",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		v, err := loadPlans(cmd.Context(), a)
		if err != nil {
			// Offline: the queue is local, show the raw entries.
			entries := a.board.Queue.Entries()
			if jsonOutput {
				return outputJSON(entries)
			}
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			for i, e := range entries {
				fmt.Printf("%d. %s/%s\n", i+1, e.PlanID, e.GoalID)
			}
			return nil
		}
		pushDirty(cmd.Context(), a, v)

		goals := v.Column(store.TaskBacklog).Goals
		if jsonOutput {
			return outputJSON(goals)
		}
		if len(goals) == 0 {
			fmt.Println("Board is empty. Add a goal with `tempo queue add <plan-id> <goal-id>`.")
			return nil
		}
		for i, g := range goals {
			fmt.Printf("%d. %s %s/%s  %s  (%s)  %d/%d done\n", i+1, goalMark(g.Status), g.PlanID, g.GoalID, tui.CleanLine(g.GoalName), tui.CleanLine(g.PlanTitle), g.Done, g.Total)
		}
		return nil
	},
}

var queueAddCmd = &cobra.Command{
	Use:   "add <plan-id> <goal-id>",
	Short: "Put a goal on the board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}
		added, err := a.board.Enqueue(args[0], args[1])
		if err != nil {
			return err
		}
		v := a.board.Render()
		pushDirty(cmd.Context(), a, v)
		if jsonOutput {
			return outputJSON(map[string]bool{"added": added})
		}
		if added {
			fmt.Printf("Queued %s/%s\n", args[0], args[1])
		} else {
			fmt.Printf("%s/%s is already queued\n", args[0], args[1])
		}
		return nil
	},
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove <plan-id> <goal-id>",
	Short: "Take a goal off the board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		removed := a.board.Dequeue(args[0], args[1])
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			a.logger.Debug("skipping prune", "error", err)
		}
		if jsonOutput {
			return outputJSON(map[string]bool{"removed": removed})
		}
		if removed {
			fmt.Printf("Removed %s/%s\n", args[0], args[1])
		} else {
			fmt.Printf("%s/%s was not queued\n", args[0], args[1])
		}
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks <plan-id> <goal-id>",
	Short: "List a goal's tasks and their lanes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		v, err := loadPlans(cmd.Context(), a)
		if err != nil {
			return err
		}
		p := a.board.Plans.FindByID(args[0])
		if p == nil {
			return fmt.Errorf("plan %s: %w", args[0], board.ErrUnknownGoal)
		}
		g := p.FindGoal(args[1])
		if g == nil {
			return fmt.Errorf("%s/%s: %w", args[0], args[1], board.ErrUnknownGoal)
		}

		lanes := taskLanes(v)
		type row struct {
			ID   string           `json:"id"`
			Text string           `json:"text"`
			Lane store.TaskStatus `json:"lane"`
		}
		var rows []row
		for _, t := range board.DeriveTasks(plan.NormalizeID(p.ID), *g) {
			lane, ok := lanes[store.TaskKey(t.PlanID, t.GoalID, t.ID)]
			if !ok {
				lane = store.TaskBacklog
			}
			rows = append(rows, row{ID: t.ID, Text: t.Text, Lane: lane})
		}
		if jsonOutput {
			return outputJSON(rows)
		}

		if _, queued := v.Goal(p.ID, g.ID); !queued {
			fmt.Fprintf(os.Stderr, "Note: %s is not on the board\n", tui.CleanLine(g.Name))
		}
		if len(rows) == 0 {
			fmt.Println("No tasks. Add one line per task to the goal details.")
		}
		for _, r := range rows {
			fmt.Printf("%-8s %-8s %s\n", r.ID, r.Lane, tui.CleanLine(r.Text))
		}
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <plan-id> <goal-id> <task-id> <backlog|todo|doing|done>",
	Short: "Move a task to another lane",
	Long: `Move a task to another lane.

Moving to doing schedules a calendar event first (--start, --duration,
--title, --type); the task only moves when the event is created.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		lane := store.TaskStatus(strings.ToLower(args[3]))
		if !lane.Valid() {
			return fmt.Errorf("invalid lane %q (use backlog, todo, doing or done)", args[3])
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}

		ref := board.TaskRef{PlanID: args[0], GoalID: args[1], TaskID: args[2]}
		var moved bool
		switch lane {
		case store.TaskBacklog:
			moved = a.board.DropOnGoal(ref, ref.PlanID, ref.GoalID)
		case store.TaskDoing:
			moved, err = a.board.MoveTask(cmd.Context(), ref, lane, eventGate(a))
		default:
			moved, err = a.board.MoveTask(cmd.Context(), ref, lane, nil)
		}
		if err != nil {
			return err
		}

		v := a.board.Render()
		pushDirty(cmd.Context(), a, v)

		if jsonOutput {
			card, _ := a.board.Card(ref)
			return outputJSON(map[string]any{"moved": moved, "task": card})
		}
		if moved {
			fmt.Printf("%s → %s\n", ref.TaskID, lane)
		} else {
			fmt.Printf("%s unchanged\n", ref.TaskID)
		}
		return nil
	},
}

// eventGate creates the calendar event from the move flags.
func eventGate(a *app) board.Gate {
	return func(ctx context.Context, card board.TaskCard) (bool, error) {
		now := time.Now()
		start := api.NextSlot(now)
		if moveStart != "" {
			t, err := api.ParseStart(moveStart, now)
			if err != nil {
				return false, err
			}
			start = t
		}
		if moveDuration <= 0 {
			return false, fmt.Errorf("--duration must be positive")
		}
		title := moveTitle
		if title == "" {
			title = card.Text
		}
		et, err := a.client.ResolveEventType(ctx, moveType)
		if err != nil {
			return false, err
		}

		ev, err := a.client.CreateEvent(ctx, api.EventInput{
			Title:  title,
			Start:  start,
			End:    start.Add(moveDuration),
			Remark: card.PlanTitle + " / " + card.GoalName,
		}.WithType(et))
		if err != nil {
			return false, fmt.Errorf("creating event: %w", err)
		}
		if !jsonOutput {
			fmt.Printf("Scheduled %q at %s\n", tui.CleanLine(ev.Title), start.Format(api.InputLayout))
		}
		return true, nil
	}
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print the four lanes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		v, err := loadPlans(cmd.Context(), a)
		if err != nil {
			return err
		}
		pushDirty(cmd.Context(), a, v)

		if jsonOutput {
			return outputJSON(map[string]any{
				"remaining_score": v.RemainingScore,
				"columns":         v.Columns,
				"unsynced":        a.board.Sync.Unsynced(),
			})
		}

		for i, col := range v.Columns {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(strings.ToUpper(string(col.Lane)))
			for _, g := range col.Goals {
				fmt.Printf("  %s %s  (%s)  %d/%d\n", goalMark(g.Status), tui.CleanLine(g.GoalName), tui.CleanLine(g.PlanTitle), g.Done, g.Total)
				for _, t := range g.Tasks {
					fmt.Printf("      %-8s %s\n", t.ID, tui.CleanLine(t.Text))
				}
			}
			for _, t := range col.Tasks {
				fmt.Printf("  %-8s %s  (%s)\n", t.ID, tui.CleanLine(t.Text), tui.CleanLine(t.GoalName))
			}
		}
		if n := len(a.board.Sync.Unsynced()); n > 0 {
			fmt.Printf("\n%d plan(s) unsynced, run `tempo sync`\n", n)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push plans whose status changed locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}
		n, err := a.board.Reconcile(cmd.Context())
		left := a.board.Sync.Unsynced()
		if jsonOutput {
			if jerr := outputJSON(map[string]any{"synced": n, "unsynced": left}); jerr != nil {
				return jerr
			}
			return err
		}
		fmt.Printf("Synced %d plan(s)\n", n)
		if len(left) > 0 {
			fmt.Printf("Still unsynced: %s\n", strings.Join(left, ", "))
		}
		return err
	},
}

func taskLanes(v board.View) map[string]store.TaskStatus {
	lanes := make(map[string]store.TaskStatus)
	for _, col := range v.Columns {
		for _, t := range col.Tasks {
			lanes[store.TaskKey(t.PlanID, t.GoalID, t.ID)] = t.Lane
		}
	}
	return lanes
}

func goalMark(st plan.GoalStatus) string {
	switch st {
	case plan.GoalDone:
		return "✓"
	case plan.GoalExecuting:
		return "◐"
	}
	return "○"
}

func init() {
	moveCmd.Flags().StringVar(&moveStart, "start", "", "event start for doing, e.g. \"2026-03-01 09:30\" or \"14:00\" (default next quarter hour)")
	moveCmd.Flags().DurationVar(&moveDuration, "duration", time.Hour, "event length for doing")
	moveCmd.Flags().StringVar(&moveTitle, "title", "", "event title for doing (default the task text)")
	moveCmd.Flags().StringVar(&moveType, "type", "", "event type id or name for doing (see tempo types)")

	queueCmd.AddCommand(queueAddCmd, queueRemoveCmd)
}
