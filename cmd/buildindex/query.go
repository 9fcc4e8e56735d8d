package main

import (
	"fmt"
	"text/tabwriter"

	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Load an artifact and print the closest recipes for a pantry",
	RunE:  runQuery,
}

var (
	queryArtifact string
	queryPantry   string
	queryMarker   string
	queryTopK     int
)

func init() {
	queryCmd.Flags().StringVarP(&queryArtifact, "artifact", "a", "", "Path to the artifact")
	queryCmd.Flags().StringVarP(&queryPantry, "pantry", "p", "", "Comma separated ingredient list")
	queryCmd.Flags().StringVar(&queryMarker, "marker", "food.com", "Placeholder marker purged at load")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 10, "Number of results")
	_ = queryCmd.MarkFlagRequired("artifact")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, _ []string) error {
	loaded := similarity.Open(queryArtifact, queryMarker)
	idx, err := loaded.Index()
	if err != nil {
		return err
	}

	matches, err := idx.Query(common.SplitList(queryPantry), queryTopK)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tNAME\tMEAL\tINGREDIENTS")
	for _, m := range matches {
		fmt.Fprintf(tw, "%.4f\t%s\t%s\t%s\n", m.Score, m.Recipe.Name, m.Recipe.MealType(), m.Recipe.IngredientParts)
	}
	return tw.Flush()
}
