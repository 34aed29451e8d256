package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/RimvydasPet/tech-doc-assistant/internal/assistant"
	"github.com/RimvydasPet/tech-doc-assistant/internal/observability"
	"github.com/RimvydasPet/tech-doc-assistant/internal/output"
)

var (
	askSession string
	askLang    string
	askVisual  bool
	askOutput  string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot documentation question",
	Long: `Ask a single question about the indexed Python libraries.

The question may be in any supported language; the answer comes back in
the same language. Use "docassist languages" to list them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question must not be empty")
		}

		format, err := output.ParseFormat(askOutput)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		componentLogger, err := observability.NewComponentLogger(cfg.Logging.Level)
		if err != nil {
			return err
		}

		application, err := buildApp(cmd.Context(), cfg, componentLogger)
		if err != nil {
			return err
		}
		defer application.Close() // nolint:errcheck // best-effort cleanup

		if application.Index.Len() == 0 {
			return fmt.Errorf("vector index is empty; run 'docassist index build' first")
		}

		sessionID := strings.TrimSpace(askSession)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		answer, err := application.Assistant.Ask(cmd.Context(), assistant.AskRequest{
			SessionID: sessionID,
			Message:   question,
			Language:  askLang,
			Visual:    askVisual,
		})
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatAnswer(answer)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askSession, "session", "", "session id for rate limiting and history (default: random)")
	askCmd.Flags().StringVar(&askLang, "lang", "", "force the question language (default: auto-detect)")
	askCmd.Flags().BoolVar(&askVisual, "visual", false, "request a structured chart/table payload with the answer")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "text", "output format: text, table, json")
}
