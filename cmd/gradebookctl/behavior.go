package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gradebook/internal/application/orchestrators"
	"gradebook/internal/domain/behavior"
)

var submission behavior.Submission

var behaviorCmd = &cobra.Command{
	Use:   "behavior <index>",
	Short: "Record a behavior evaluation",
	Long: `Record the behavior checklist of the student at <index>. The score is
recomputed from the checklist; unchecked items are cleared.

Examples:
  gradebookctl behavior 4 --bavardage --retards 2
  gradebookctl behavior 4 --participation --aide --commentaire "Très investi"`,
	Args: cobra.ExactArgs(1),
	RunE: runBehavior,
}

func init() {
	rootCmd.AddCommand(behaviorCmd)
	f := behaviorCmd.Flags()
	f.BoolVar(&submission.Chatter, behavior.RuleChatter, false, "Bavardage")
	f.BoolVar(&submission.Disrespect, behavior.RuleDisrespect, false, "Manque de respect")
	f.BoolVar(&submission.Homework, behavior.RuleHomework, false, "Devoir non remis")
	f.IntVar(&submission.Tardies, behavior.RuleTardies, 0, "Nombre de retards")
	f.IntVar(&submission.Missing, behavior.RuleMissing, 0, "Nombre d'oublis de matériel")
	f.BoolVar(&submission.Participation, behavior.RuleParticipation, false, "Participation active")
	f.BoolVar(&submission.Help, behavior.RuleHelp, false, "Aide aux camarades")
	f.StringVar(&submission.Comment, "commentaire", "", "Commentaire libre")
}

func runBehavior(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	client := newClient()
	r, err := loadRoster(cmd.Context(), client)
	if err != nil {
		return err
	}

	res, err := orchestrators.ExecuteEvaluateBehavior(cmd.Context(),
		orchestrators.EvaluateBehaviorInput{Index: index, Checklist: submission.Checklist()},
		orchestrators.EvaluateBehaviorDeps{Store: client, Roster: r})
	if err != nil {
		return err
	}
	b := res.Record.Behavior
	if !b.Score.IsSet() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: comportement effacé\n", res.Record.FullName())
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/20 (%s)\n", res.Record.FullName(), b.Score.Value(), b.Details)
	return nil
}
