package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koopa0/autodraft/internal/draft"
)

var (
	draftTitle       string
	draftDescription string
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Generate proposal text",
}

var draftSectionCmd = &cobra.Command{
	Use:   "section <type>",
	Short: fmt.Sprintf("Generate one section (%v)", draft.Sections),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}

		section, err := a.Writer.GenerateSection(ctx, args[0], draftTitle, draftDescription, nil)
		if err != nil {
			return err
		}

		fmt.Println(section.Content)
		if section.Degraded {
			fmt.Fprintln(os.Stderr, "note: generated from degraded research or output")
		}
		return nil
	},
}

var draftAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Generate every canonical section",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}

		sections, err := a.Writer.GenerateAllSections(ctx, draftTitle, draftDescription)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sections)
	},
}

var draftOutlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Generate a proposal outline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}

		outline, err := a.Writer.GenerateOutline(ctx, draftTitle, draftDescription)
		if err != nil {
			return err
		}
		fmt.Println(outline)
		return nil
	},
}

func init() {
	draftCmd.PersistentFlags().StringVar(&draftTitle, "title", "", "proposal title")
	draftCmd.PersistentFlags().StringVar(&draftDescription, "description", "", "proposal description")
	_ = draftCmd.MarkPersistentFlagRequired("title")

	draftCmd.AddCommand(draftSectionCmd, draftAllCmd, draftOutlineCmd)
	rootCmd.AddCommand(draftCmd)
}
