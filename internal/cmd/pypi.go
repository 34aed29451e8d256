package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RimvydasPet/tech-doc-assistant/internal/output"
	"github.com/RimvydasPet/tech-doc-assistant/internal/tools"
)

var pypiOutput string

var pypiCmd = &cobra.Command{
	Use:   "pypi <package>",
	Short: "Look up package metadata on PyPI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(pypiOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := &tools.PyPIClient{
			Client:  &http.Client{Timeout: cfg.Tools.FetchTimeout},
			BaseURL: cfg.Tools.PyPIBaseURL,
		}

		info, err := client.PackageInfo(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, tools.ErrPackageNotFound) {
				return fmt.Errorf("package %q not found on PyPI", strings.TrimSpace(args[0]))
			}
			return err
		}

		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(info)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRow(table.Row{"Name", info.Name})
		t.AppendRow(table.Row{"Version", info.Version})
		if info.Summary != "" {
			t.AppendRow(table.Row{"Summary", info.Summary})
		}
		if info.License != "" {
			t.AppendRow(table.Row{"License", info.License})
		}
		if info.HomePage != "" {
			t.AppendRow(table.Row{"Homepage", info.HomePage})
		}
		if len(info.RequiresDep) > 0 {
			t.AppendRow(table.Row{"Requires", strings.Join(info.RequiresDep, "\n")})
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func init() {
	pypiCmd.Flags().StringVarP(&pypiOutput, "output", "o", "table", "output format: table, json")
	rootCmd.AddCommand(pypiCmd)
}
