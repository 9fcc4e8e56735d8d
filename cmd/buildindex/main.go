// Package main 離線建立食譜語料索引（TF-IDF 向量與語料包）
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "buildindex",
	Short:         "Build and inspect the recipe corpus artifact",
	Long:          "buildindex fits the TF-IDF vectorizer over a JSON array of recipe rows and writes the versioned artifact loaded by the API server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
