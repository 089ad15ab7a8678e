package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/tempo/pkg/api"
	"github.com/stefanpenner/tempo/pkg/tui"
)

var (
	typeName   string
	typeColor  string
	eventsDay  string
	efficiency string
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List event types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		types, err := a.client.ListEventTypes(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(types)
		}
		if len(types) == 0 {
			fmt.Println("No event types. Add one with `tempo type add <name>`.")
		}
		for _, t := range types {
			fmt.Printf("%s  %s  %s\n", t.ID, t.Color, tui.CleanLine(t.Name))
		}
		return nil
	},
}

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Add, edit and remove event types",
}

var typeAddCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Add an event type",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		name := strings.TrimSpace(strings.Join(args, " "))
		types, err := a.client.ListEventTypes(cmd.Context())
		if err != nil {
			return err
		}
		for _, t := range types {
			if strings.EqualFold(t.Name, name) {
				return fmt.Errorf("event type %q already exists (%s)", t.Name, t.ID)
			}
		}
		t, err := a.client.CreateEventType(cmd.Context(), api.EventTypeInput{Name: name, Color: typeColor})
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(t)
		}
		fmt.Printf("Added: %s (%s)\n", tui.CleanLine(t.Name), t.ID)
		return nil
	},
}

var typeEditCmd = &cobra.Command{
	Use:   "edit <id|name>",
	Short: "Rename or recolor an event type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(typeName) == "" && typeColor == "" {
			return errors.New("nothing to change, pass --name or --color")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		et, err := a.client.ResolveEventType(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		t, err := a.client.UpdateEventType(cmd.Context(), et.ID, api.EventTypeInput{Name: typeName, Color: typeColor})
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(t)
		}
		fmt.Printf("Updated: %s %s\n", tui.CleanLine(t.Name), t.Color)
		return nil
	},
}

var typeRemoveCmd = &cobra.Command{
	Use:     "rm <id|name>",
	Aliases: []string{"remove"},
	Short:   "Remove an event type",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		et, err := a.client.ResolveEventType(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !assumeYes && !confirm(cmd.InOrStdin(), os.Stderr, fmt.Sprintf("Remove event type %q?", et.Name)) {
			return errors.New("aborted")
		}
		if err := a.client.DeleteEventType(cmd.Context(), et.ID); err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(map[string]string{"deleted": et.ID})
		}
		fmt.Printf("Removed: %s\n", tui.CleanLine(et.Name))
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List calendar events",
	Long: `List calendar events in start order.

--day limits the list to one day ("2026-03-01" or "today").`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := parseDay(eventsDay, time.Now())
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		events, err := a.client.ListEvents(cmd.Context())
		if err != nil {
			return err
		}
		events = filterEvents(events, day)
		if jsonOutput {
			return outputJSON(events)
		}
		if len(events) == 0 {
			fmt.Println("No events.")
		}
		for _, ev := range events {
			mark := " "
			if ev.IsCompleted {
				mark = "✓"
			}
			category := ev.Category
			if category == "" {
				category = api.DefaultCategory
			}
			fmt.Printf("%s %s  %s  %s  [%s]\n", mark, ev.ID, strings.Replace(ev.Start, "T", " ", 1), tui.CleanLine(ev.Title), tui.CleanLine(category))
		}
		return nil
	},
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Complete or reopen calendar events",
}

var eventCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark an event done with an efficiency rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		ev, err := a.client.CompleteEvent(cmd.Context(), args[0], api.Efficiency(strings.ToLower(efficiency)))
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(ev)
		}
		fmt.Printf("Completed: %s (%s)\n", tui.CleanLine(ev.Title), ev.Efficiency)
		return nil
	},
}

var eventUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Reopen a completed event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		ev, err := a.client.UndoCompleteEvent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(ev)
		}
		fmt.Printf("Reopened: %s\n", tui.CleanLine(ev.Title))
		return nil
	},
}

// parseDay reads --day. An empty value means no filter.
func parseDay(s string, now time.Time) (string, error) {
	switch s = strings.TrimSpace(strings.ToLower(s)); s {
	case "":
		return "", nil
	case "today":
		return now.Format("2006-01-02"), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("invalid --day %q (use 2006-01-02 or today)", s)
	}
	return t.Format("2006-01-02"), nil
}

// filterEvents keeps events starting on day (all when empty), sorted by
// start.
func filterEvents(events []api.Event, day string) []api.Event {
	var out []api.Event
	for _, ev := range events {
		if day == "" || strings.HasPrefix(ev.Start, day) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func init() {
	typeAddCmd.Flags().StringVar(&typeColor, "color", "", "hex color, e.g. #3b82f6 (default "+api.DefaultTypeColor+")")
	typeEditCmd.Flags().StringVar(&typeName, "name", "", "new name")
	typeEditCmd.Flags().StringVar(&typeColor, "color", "", "new hex color")
	typeRemoveCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation")
	eventsCmd.Flags().StringVar(&eventsDay, "day", "", "only events on this day")
	eventCompleteCmd.Flags().StringVarP(&efficiency, "efficiency", "e", "medium", "high, medium or low")

	typeCmd.AddCommand(typeAddCmd, typeEditCmd, typeRemoveCmd)
	eventCmd.AddCommand(eventCompleteCmd, eventUndoCmd)
}
