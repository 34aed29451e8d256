package output

import (
	"fmt"
	"strings"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

// TextFormatter renders answers as plain text for terminal reading.
type TextFormatter struct{}

// FormatAnswer renders an answer as text with a source footer.
func (f *TextFormatter) FormatAnswer(answer *core.Answer) (string, error) {
	if answer == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(answer.Text))

	if answer.Visual != nil {
		sb.WriteString("\n\n")
		sb.WriteString(renderVisual(answer.Visual))
	}

	if len(answer.Sources) > 0 {
		sb.WriteString("\n\nSources:\n")
		for _, source := range answer.Sources {
			fmt.Fprintf(&sb, "  - %s\n", source)
		}
	}

	for _, result := range answer.ToolResults {
		if result.Err != "" || result.Output == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n[%s]\n%s\n", result.Tool, result.Output)
	}

	if answer.Usage.TotalTokens > 0 {
		fmt.Fprintf(&sb, "\n(%d tokens)", answer.Usage.TotalTokens)
	}

	return strings.TrimRight(sb.String(), "\n") + "\n", nil
}
