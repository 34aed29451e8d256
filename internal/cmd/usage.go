package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/RimvydasPet/tech-doc-assistant/internal/output"
	"github.com/RimvydasPet/tech-doc-assistant/internal/store"
)

var (
	usageLimit  int
	usageOutput string
)

var usageCmd = &cobra.Command{
	Use:   "usage <session>",
	Short: "Show a session's persisted question history and token totals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := strings.TrimSpace(args[0])
		if sessionID == "" {
			return fmt.Errorf("session id is required")
		}

		format, err := output.ParseFormat(usageOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		records, err := db.SessionUsage(cmd.Context(), sessionID, usageLimit)
		if err != nil {
			return err
		}
		totals, err := db.TotalTokens(cmd.Context(), sessionID)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			rendered, err := output.RenderJSON(struct {
				SessionID string              `json:"session_id"`
				Totals    any                 `json:"totals"`
				History   []store.UsageRecord `json:"history"`
			}{SessionID: sessionID, Totals: totals, History: records})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Asked At", "Language", "Tokens", "Question"})
		for _, rec := range records {
			t.AppendRow(table.Row{
				rec.AskedAt.Format(time.RFC3339),
				rec.Language,
				rec.Usage.TotalTokens,
				truncateQuestion(rec.Question, 60),
			})
		}
		t.AppendFooter(table.Row{"", "Total", totals.TotalTokens, ""})

		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func truncateQuestion(question string, limit int) string {
	runes := []rune(question)
	if len(runes) <= limit {
		return question
	}
	return string(runes[:limit-1]) + "…"
}

func init() {
	usageCmd.Flags().IntVar(&usageLimit, "limit", 20, "maximum history entries to show")
	usageCmd.Flags().StringVarP(&usageOutput, "output", "o", "table", "output format: table, json")
	rootCmd.AddCommand(usageCmd)
}
