package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestScope string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest plain-text documents into the retrieval store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}

		texts := make([]string, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			texts = append(texts, string(data))
		}

		if err := a.Registry.Ingest(ctx, texts, ingestScope); err != nil {
			return fmt.Errorf("ingesting: %w", err)
		}

		fmt.Printf("ingested %d file(s), %d chunk(s) in store\n", len(args), a.Registry.Count(ingestScope))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestScope, "scope", "", "project scope (empty for the global collection)")
	rootCmd.AddCommand(ingestCmd)
}
