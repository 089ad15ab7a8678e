package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/tempo/pkg/api"
	"github.com/stefanpenner/tempo/pkg/tui"
)

var (
	ideaPriority string
	ideaStart    string
	ideaDuration time.Duration
	ideaUrgency  string
	ideaType     string
)

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "List the idea inbox",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		ideas, err := a.client.ListIdeas(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(ideas)
		}
		if len(ideas) == 0 {
			fmt.Println("No ideas. Add one with `tempo idea add <text>`.")
		}
		for _, idea := range ideas {
			fmt.Printf("%s  [%s] %s\n", idea.ID, idea.Priority, tui.CleanLine(idea.Text))
		}
		return nil
	},
}

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Add, edit, schedule and remove ideas",
}

var ideaAddCmd = &cobra.Command{
	Use:   "add <text>...",
	Short: "Add an idea",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		priority := api.Priority(ideaPriority)
		if priority == "" {
			priority = api.PriorityMedium
		}
		idea, err := a.client.CreateIdea(cmd.Context(), api.IdeaInput{
			Text:     strings.Join(args, " "),
			Priority: priority,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(idea)
		}
		fmt.Printf("Added: %s (%s)\n", tui.CleanLine(idea.Text), idea.ID)
		return nil
	},
}

var ideaEditCmd = &cobra.Command{
	Use:   "edit <id> [text]...",
	Short: "Change an idea's text or priority",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := api.IdeaInput{
			Text:     strings.Join(args[1:], " "),
			Priority: api.Priority(ideaPriority),
		}
		if strings.TrimSpace(in.Text) == "" && in.Priority == "" {
			return errors.New("nothing to change, pass new text or --priority")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		idea, err := a.client.UpdateIdea(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(idea)
		}
		fmt.Printf("Updated: [%s] %s\n", idea.Priority, tui.CleanLine(idea.Text))
		return nil
	},
}

var ideaRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove an idea",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if !assumeYes && !confirm(cmd.InOrStdin(), os.Stderr, fmt.Sprintf("Remove idea %s?", args[0])) {
			return errors.New("aborted")
		}
		if err := a.client.DeleteIdea(cmd.Context(), args[0]); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]string{"deleted": args[0]})
		}
		fmt.Printf("Removed: %s\n", args[0])
		return nil
	},
}

var ideaScheduleCmd = &cobra.Command{
	Use:   "schedule <id>",
	Short: "Turn an idea into a calendar event and remove it from the inbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ideaDuration <= 0 {
			return errors.New("--duration must be positive")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		ideas, err := a.client.ListIdeas(cmd.Context())
		if err != nil {
			return err
		}
		var idea *api.Idea
		for i := range ideas {
			if ideas[i].ID == strings.TrimSpace(args[0]) {
				idea = &ideas[i]
				break
			}
		}
		if idea == nil {
			return fmt.Errorf("idea %s not found", args[0])
		}

		now := time.Now()
		start := api.NextSlot(now)
		if ideaStart != "" {
			if start, err = api.ParseStart(ideaStart, now); err != nil {
				return err
			}
		}
		et, err := a.client.ResolveEventType(cmd.Context(), ideaType)
		if err != nil {
			return err
		}
		ev, err := a.client.CreateEvent(cmd.Context(), api.EventInput{
			Title:   idea.Text,
			Start:   start,
			End:     start.Add(ideaDuration),
			Urgency: ideaUrgency,
		}.WithType(et))
		if err != nil {
			return fmt.Errorf("creating event: %w", err)
		}
		// The event exists now; a failed delete only leaves the idea behind.
		if err := a.client.DeleteIdea(cmd.Context(), idea.ID); err != nil {
			a.logger.Warn("idea kept after scheduling", "idea", idea.ID, "error", err)
			fmt.Fprintf(os.Stderr, "Warning: event created but idea %s was not removed: %v\n", idea.ID, err)
		}

		if jsonOutput {
			return outputJSON(ev)
		}
		fmt.Printf("Scheduled %q at %s\n", tui.CleanLine(ev.Title), start.Format(api.InputLayout))
		return nil
	},
}

func init() {
	ideaAddCmd.Flags().StringVarP(&ideaPriority, "priority", "p", "", "high, medium or low (default medium)")
	ideaEditCmd.Flags().StringVarP(&ideaPriority, "priority", "p", "", "high, medium or low")
	ideaRemoveCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation")
	ideaScheduleCmd.Flags().StringVar(&ideaStart, "start", "", "event start (default next quarter hour)")
	ideaScheduleCmd.Flags().DurationVar(&ideaDuration, "duration", time.Hour, "event length")
	ideaScheduleCmd.Flags().StringVar(&ideaType, "type", "", "event type id or name (see tempo types)")
	ideaScheduleCmd.Flags().StringVar(&ideaUrgency, "urgency", "", "event urgency label (backend default when empty)")

	ideaCmd.AddCommand(ideaAddCmd, ideaEditCmd, ideaRemoveCmd, ideaScheduleCmd)
}
