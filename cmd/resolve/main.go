package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Entity resolution for document-derived knowledge graphs",
	Long: `resolve consolidates duplicate named entities (people, organizations,
departments, items) in a knowledge graph before it is published for querying.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
