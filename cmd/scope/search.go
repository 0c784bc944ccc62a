package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/codescope/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <text...>",
	Short: "Search the project's code index",
	Long: `Search the project's code index.

Modes:
  lexical   match names in the index, optionally restricted with --level
  semantic  rank entities by meaning
  relation  find entities in a relation, written TYPE:target (e.g. IMPLEMENTS:Serializable)`,
	GroupID: "explore",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		level, _ := cmd.Flags().GetString("level")
		limit, _ := cmd.Flags().GetInt("limit")

		q := model.SearchQuery{
			Modality: model.SearchModality(strings.ToLower(mode)),
			Text:     strings.Join(args, " "),
			Level:    model.IndexLevel(strings.ToUpper(level)),
			Limit:    limit,
		}
		if _, err := attach(cmd.Context(), nil); err != nil {
			return err
		}
		out, err := exp.Search(cmd.Context(), q)
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), out)
	},
}

func init() {
	searchCmd.Flags().String("mode", "lexical", "search mode: lexical, semantic or relation")
	searchCmd.Flags().String("level", "", "index level for lexical search: ALL, FILE, CLASS, METHOD, FIELD or SNIPPET")
	searchCmd.Flags().Int("limit", 0, "maximum number of results (default from config, then the service's 10)")
}
