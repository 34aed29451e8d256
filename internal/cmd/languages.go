package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/output"
)

var languagesOutput string

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the supported question languages",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(languagesOutput)
		if err != nil {
			return err
		}

		languages := core.SupportedLanguages()

		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(languages)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), output.LanguagesTable(languages))
		return nil
	},
}

func init() {
	languagesCmd.Flags().StringVarP(&languagesOutput, "output", "o", "table", "output format: table, json")
	rootCmd.AddCommand(languagesCmd)
}
