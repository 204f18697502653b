package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var researchBackground string

var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Research a topic with the bounded search loop",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}

		res := a.Agent.Research(ctx, strings.Join(args, " "), researchBackground)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return nil
	},
}

func init() {
	researchCmd.Flags().StringVar(&researchBackground, "background", "", "additional context for the research run")
	rootCmd.AddCommand(researchCmd)
}
