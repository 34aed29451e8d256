package cmd

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RimvydasPet/tech-doc-assistant/internal/output"
	"github.com/RimvydasPet/tech-doc-assistant/internal/server/handlers"
)

var (
	rateLimitAddr   string
	rateLimitOutput string
)

var rateLimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Inspect the running server's rate-limit state",
	Long: `Inspect the per-session rate-limit state of a running server.

The sliding window lives in the server process, so this command talks to
its HTTP API. For the persisted question history use "docassist usage".`,
}

var rateLimitShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show a session's sliding-window usage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := strings.TrimSpace(args[0])
		if sessionID == "" {
			return fmt.Errorf("session id is required")
		}

		format, err := output.ParseFormat(rateLimitOutput)
		if err != nil {
			return err
		}

		var usage handlers.UsageResponse
		path := "/api/usage/" + url.PathEscape(sessionID)
		if err := serverGet(cmd.Context(), rateLimitAddr, path, &usage); err != nil {
			return err
		}

		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(usage)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRow(table.Row{"Session", usage.SessionID})
		t.AppendRow(table.Row{"Requests used", usage.RequestsUsed})
		t.AppendRow(table.Row{"Remaining", usage.Remaining})
		t.AppendRow(table.Row{"Limit", usage.RequestsLimit})
		t.AppendRow(table.Row{"Window", time.Duration(usage.WindowSeconds) * time.Second})
		t.AppendRow(table.Row{"Resets in", time.Duration(usage.ResetsInSeconds) * time.Second})
		t.AppendRow(table.Row{"Tokens used", usage.TokensUsed})
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset <session>",
	Short: "Clear a session's sliding window and token count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := strings.TrimSpace(args[0])
		if sessionID == "" {
			return fmt.Errorf("session id is required")
		}

		var result handlers.UsageResetResponse
		path := "/api/usage/" + url.PathEscape(sessionID) + "/reset"
		if err := serverPost(cmd.Context(), rateLimitAddr, path, &result); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reset rate-limit state for session %s\n", result.SessionID)
		return nil
	},
}

func init() {
	rateLimitCmd.PersistentFlags().StringVar(&rateLimitAddr, "addr", "http://localhost:8080", "base URL of the running server")
	rateLimitShowCmd.Flags().StringVarP(&rateLimitOutput, "output", "o", "table", "output format: table, json")

	rateLimitCmd.AddCommand(rateLimitShowCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
