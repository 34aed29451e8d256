package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/ratelimit"
)

// TableFormatter renders answers with tabular metadata sections.
type TableFormatter struct{}

// FormatAnswer renders the answer text followed by a metadata table.
func (f *TableFormatter) FormatAnswer(answer *core.Answer) (string, error) {
	if answer == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(answer.Text))

	if answer.Visual != nil {
		sb.WriteString("\n\n")
		sb.WriteString(renderVisual(answer.Visual))
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Language", answer.Language})
	if answer.Strategy != "" {
		t.AppendRow(table.Row{"Strategy", answer.Strategy})
	}
	if len(answer.Sources) > 0 {
		t.AppendRow(table.Row{"Sources", strings.Join(answer.Sources, "\n")})
	}
	t.AppendRow(table.Row{"Tokens", answer.Usage.TotalTokens})

	sb.WriteString("\n\n")
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String(), nil
}

// renderVisual renders the structured payload of a visual-mode answer.
// Chart types degrade to the same tabular view in a terminal.
func renderVisual(visual *core.Visual) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	if visual.Title != "" {
		t.SetTitle(visual.Title)
	}

	header := make(table.Row, 0, len(visual.Data.Columns))
	for _, col := range visual.Data.Columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, row := range visual.Data.Rows {
		cells := make(table.Row, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		t.AppendRow(cells)
	}

	return t.Render()
}

// UsageTable renders a session's rate-limit snapshot.
func UsageTable(sessionID string, snap ratelimit.Snapshot) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Session", sessionID})
	t.AppendRow(table.Row{"Requests used", snap.Used})
	t.AppendRow(table.Row{"Remaining", snap.Remaining})
	t.AppendRow(table.Row{"Window", snap.Window})
	if snap.Used > 0 {
		t.AppendRow(table.Row{"Resets in", snap.ResetsIn.Round(time.Second)})
	}
	t.AppendRow(table.Row{"Tokens used", snap.TokensUsed})
	return t.Render()
}

// CacheStatsTable renders per-region cache counters.
func CacheStatsTable(stats map[cache.Region]cache.Stats) string {
	regions := make([]cache.Region, 0, len(stats))
	for region := range stats {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Region", "Enabled", "Entries", "Hits", "Misses", "Hit Rate"})
	for _, region := range regions {
		s := stats[region]
		t.AppendRow(table.Row{
			string(region),
			s.Enabled,
			s.Entries,
			s.Hits,
			s.Misses,
			fmt.Sprintf("%.1f%%", s.Rate*100),
		})
	}
	return t.Render()
}

// LanguagesTable renders the supported language set.
func LanguagesTable(languages []core.LanguageInfo) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Code", "Name", "Native"})
	for _, lang := range languages {
		t.AppendRow(table.Row{lang.Code, lang.Name, lang.Native})
	}
	return t.Render()
}
