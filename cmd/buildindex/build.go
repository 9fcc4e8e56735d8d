package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"meal-planner/internal/core/recipe"
	"meal-planner/internal/core/similarity"
	"meal-planner/internal/pkg/common"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Fit the vectorizer over recipe rows and write the artifact",
	RunE:  runBuild,
}

var (
	buildInputFile  string
	buildOutputFile string
)

func init() {
	buildCmd.Flags().StringVarP(&buildInputFile, "in", "i", "", "Path to a JSON array of recipe rows")
	buildCmd.Flags().StringVarP(&buildOutputFile, "out", "o", "", "Path to write the artifact")
	_ = buildCmd.MarkFlagRequired("in")
	_ = buildCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	in, err := os.Open(buildInputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(buildOutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	a, err := buildArtifact(in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d recipes, %d terms\n",
		buildOutputFile, len(a.Recipes), len(a.Vectorizer.IDF))
	return nil
}

// buildArtifact 讀取食譜陣列，建立並寫出語料包；名稱或食材為空的列略過
func buildArtifact(r io.Reader, w io.Writer) (*similarity.Artifact, error) {
	var rows []recipe.Recipe
	if err := common.DecodeJSON(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode recipe rows: %w", err)
	}

	recipes := make([]recipe.Recipe, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.IngredientParts) == "" {
			continue
		}
		recipes = append(recipes, row)
	}
	if len(recipes) == 0 {
		return nil, fmt.Errorf("no usable recipe rows")
	}

	a := similarity.Fit(recipes)
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	if err := a.Write(w); err != nil {
		return nil, err
	}
	return a, nil
}
