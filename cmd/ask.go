package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askScope string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question grounded in ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}

		res, err := a.Answerer.Answer(ctx, strings.Join(args, " "), askScope)
		if err != nil {
			return err
		}

		if res.Degraded {
			fmt.Printf("no answer: %s\n", res.Reason)
			return nil
		}

		fmt.Println(res.Answer)
		if len(res.Sources) > 0 {
			fmt.Printf("\nSources (%d):\n", len(res.Sources))
			for i, c := range res.Sources {
				fmt.Printf("  [%d] %s\n", i+1, snippet(c.Text, 100))
			}
		}
		return nil
	},
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func init() {
	askCmd.Flags().StringVar(&askScope, "scope", "", "project scope (empty for the global collection)")
	rootCmd.AddCommand(askCmd)
}
