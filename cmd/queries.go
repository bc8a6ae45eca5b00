package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/query"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/roster"
)

var (
	queriesInput string
	queriesLimit int
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print the search queries a run would issue, without calling any provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := roster.Read(queriesInput)
		if err != nil {
			return err
		}
		r.Limit(queriesLimit)
		return printQueriesJSON(os.Stdout, query.Generate(r.Companies, r.Titles))
	},
}

func printQueriesJSON(w io.Writer, queries []model.Query) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(queries)
}

func init() {
	queriesCmd.Flags().StringVar(&queriesInput, "input", "input.csv", "input roster CSV")
	queriesCmd.Flags().IntVar(&queriesLimit, "limit", 0, "use only the first N companies (0 = all)")
	rootCmd.AddCommand(queriesCmd)
}
