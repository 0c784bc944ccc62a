package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// runSemantic attaches to the active project and runs r in the semantic view.
func runSemantic(cmd *cobra.Command, r model.SemanticRequest) error {
	if _, err := attach(cmd.Context(), nil); err != nil {
		return err
	}
	out, err := exp.Semantic(cmd.Context(), r)
	if err != nil {
		return err
	}
	return printOutcome(cmd.OutOrStdout(), out)
}

var callsCmd = &cobra.Command{
	Use:     "calls <method-id>",
	Short:   "List the callees or callers of a method",
	GroupID: "explore",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		direction, _ := cmd.Flags().GetString("direction")
		return runSemantic(cmd, model.SemanticRequest{
			Kind:      model.SemanticCallGraph,
			MethodID:  args[0],
			Direction: model.Direction(strings.ToLower(direction)),
		})
	},
}

var dataflowCmd = &cobra.Command{
	Use:     "dataflow <method-id>",
	Short:   "Show the inputs, outputs and connections of a method",
	GroupID: "explore",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSemantic(cmd, model.SemanticRequest{Kind: model.SemanticDataFlow, MethodID: args[0]})
	},
}

var similarCmd = &cobra.Command{
	Use:     "similar <method-id>",
	Short:   "Find methods similar to a method",
	GroupID: "explore",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := model.SemanticRequest{Kind: model.SemanticSimilarity, MethodID: args[0]}
		if cmd.Flags().Changed("min") {
			threshold, _ := cmd.Flags().GetFloat64("min")
			r.MinSimilarity = &threshold
		}
		return runSemantic(cmd, r)
	},
}

var conceptsCmd = &cobra.Command{
	Use:     "concepts <concept>",
	Short:   "Find entities associated with a domain concept",
	GroupID: "explore",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSemantic(cmd, model.SemanticRequest{Kind: model.SemanticConcept, Concept: strings.Join(args, " ")})
	},
}

var qualityCmd = &cobra.Command{
	Use:     "quality",
	Short:   "List quality issues with the project's score and grade",
	GroupID: "explore",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, _ := cmd.Flags().GetString("entity")
		if _, err := attach(cmd.Context(), nil); err != nil {
			return err
		}
		out, err := exp.Quality(cmd.Context(), model.QualityQuery{EntityID: entity})
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), out)
	},
}

func init() {
	callsCmd.Flags().String("direction", string(model.DirectionCallees), "callees or callers")
	similarCmd.Flags().Float64("min", model.DefaultMinSimilarity, "minimum similarity in [0,1]")
	qualityCmd.Flags().String("entity", "", "restrict issues to one entity")
}
