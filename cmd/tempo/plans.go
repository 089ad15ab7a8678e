package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/tempo/pkg/board"
	"github.com/stefanpenner/tempo/pkg/plan"
	"github.com/stefanpenner/tempo/pkg/tui"
)

var (
	planFile  string
	assumeYes bool
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List plans and the remaining score",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}
		list := plan.List{Plans: a.board.Plans.Plans(), RemainingScore: a.board.Plans.RemainingScore()}
		if jsonOutput {
			return outputJSON(list)
		}

		if len(list.Plans) == 0 {
			fmt.Println("No plans yet. Create one with `tempo plan create --file plan.md`.")
		}
		for _, p := range list.Plans {
			printPlanLine(p)
		}
		fmt.Printf("\n%d/%d points left\n", list.RemainingScore, plan.ScoreBudget)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show, create, edit and delete plans",
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan with its goals and tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}
		p := a.board.Plans.FindByID(args[0])
		if p == nil {
			return fmt.Errorf("plan %s not found", args[0])
		}
		if jsonOutput {
			return outputJSON(p)
		}

		printPlanLine(*p)
		if p.Description != "" {
			fmt.Printf("\n%s\n", tui.CleanBlock(p.Description))
		}
		for _, g := range p.Goals {
			queued := " "
			if a.board.Queue.IsQueued(p.ID, g.ID) {
				queued = "●"
			}
			fmt.Printf("\n%s %s  %s  [%s] %d pts", queued, g.ID, tui.CleanLine(g.Name), g.Status, g.ScoreAllocation)
			if g.ExpectedTimeframe != "" {
				fmt.Printf("  %s", tui.CleanLine(g.ExpectedTimeframe))
			}
			fmt.Println()
			for _, t := range board.DeriveTasks(p.ID, g) {
				fmt.Printf("    %s  %s\n", t.ID, tui.CleanLine(t.Text))
			}
		}
		return nil
	},
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a plan from a plan document",
	Long: `Create a plan from a markdown document with YAML frontmatter:

` + plan.DocumentTemplate,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if planFile == "" {
			return errors.New("--file is required")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(planFile)
		if err != nil {
			return err
		}
		d, err := plan.ParseDocument(string(data))
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}
		if err := plan.ValidateDraft(*d, a.board.Plans.RemainingScore()); err != nil {
			return err
		}

		res, err := a.client.CreatePlan(cmd.Context(), *d)
		if err != nil {
			return err
		}
		a.board.ApplyResult(res)
		if jsonOutput {
			return outputJSON(res)
		}
		fmt.Printf("Created: %s (%s)\n%d/%d points left\n", tui.CleanLine(res.Plan.Title), res.Plan.ID, res.RemainingScore, plan.ScoreBudget)
		return nil
	},
}

var planEditCmd = &cobra.Command{
	Use:   "edit <plan-id>",
	Short: "Edit a plan document in $EDITOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}
		p := a.board.Plans.FindByID(args[0])
		if p == nil {
			return fmt.Errorf("plan %s not found", args[0])
		}

		before, err := plan.SerializeDocument(plan.DraftFromPlan(*p))
		if err != nil {
			return err
		}
		after, err := editInEditor(before)
		if err != nil {
			return err
		}
		if after == before {
			fmt.Println("No changes")
			return nil
		}

		d, err := plan.ParseDocument(after)
		if err != nil {
			return err
		}
		available := a.board.Plans.RemainingScore() + p.GoalTotal()
		if err := plan.ValidateDraft(*d, available); err != nil {
			return err
		}
		res, err := a.client.UpdatePlan(cmd.Context(), p.ID, *d)
		if err != nil {
			return err
		}
		a.board.ApplyResult(res)
		a.board.Render()
		if jsonOutput {
			return outputJSON(res)
		}
		fmt.Printf("Saved: %s\n%d/%d points left\n", tui.CleanLine(res.Plan.Title), res.RemainingScore, plan.ScoreBudget)
		return nil
	},
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan and its goals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if _, err := loadPlans(cmd.Context(), a); err != nil {
			return err
		}
		p := a.board.Plans.FindByID(args[0])
		if p == nil {
			return fmt.Errorf("plan %s not found", args[0])
		}
		if !assumeYes && !confirm(cmd.InOrStdin(), os.Stderr, fmt.Sprintf("Delete %q and its %d goal(s)?", p.Title, len(p.Goals))) {
			return errors.New("aborted")
		}

		res, err := a.client.DeletePlan(cmd.Context(), p.ID)
		if err != nil {
			return err
		}
		a.board.Plans.Remove(p.ID)
		a.board.Plans.SetRemainingScore(res.RemainingScore)
		a.board.Render()

		if jsonOutput {
			return outputJSON(res)
		}
		fmt.Printf("Deleted: %s\n%d/%d points left\n", tui.CleanLine(p.Title), res.RemainingScore, plan.ScoreBudget)
		return nil
	},
}

var planReorderCmd = &cobra.Command{
	Use:   "reorder <plan-id> <goal-id>...",
	Short: "Set the order of a plan's goals",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		p, err := a.client.ReorderGoals(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(p)
		}
		for i, g := range p.Goals {
			fmt.Printf("%d. %s  %s\n", i+1, g.ID, tui.CleanLine(g.Name))
		}
		return nil
	},
}

var planGoalStatusCmd = &cobra.Command{
	Use:   "goal-status <goal-id> <pending|executing|done>",
	Short: "Set a goal's status on the backend",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := plan.GoalStatus(strings.ToLower(args[1]))
		if !status.Valid() {
			return fmt.Errorf("invalid status %q (use pending, executing or done)", args[1])
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		res, err := a.client.UpdateGoalStatus(cmd.Context(), args[0], status)
		if err != nil {
			return err
		}
		a.board.ApplyResult(res)
		if jsonOutput {
			return outputJSON(res)
		}
		fmt.Printf("%s → %s\n", args[0], status)
		return nil
	},
}

func printPlanLine(p plan.Plan) {
	fmt.Printf("%s  %s  [%s]", p.ID, tui.CleanLine(p.Title), p.Status)
	if p.Year > 0 {
		fmt.Printf(" %d", p.Year)
	}
	fmt.Printf("  %d pts, %d goal(s)\n", p.GoalTotal(), len(p.Goals))
}

// editInEditor opens content in $EDITOR and returns what was saved.
func editInEditor(content string) (string, error) {
	f, err := os.CreateTemp("", "tempo-plan-*.md")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.WriteString(content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	editor := strings.Fields(os.Getenv("EDITOR"))
	if len(editor) == 0 {
		editor = []string{"vim"}
	}
	c := exec.Command(editor[0], append(editor[1:], path)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", editor[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func init() {
	planCreateCmd.Flags().StringVarP(&planFile, "file", "f", "", "plan document to create from")
	planDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation")

	planCmd.AddCommand(planShowCmd, planCreateCmd, planEditCmd, planDeleteCmd, planReorderCmd, planGoalStatusCmd)
}
