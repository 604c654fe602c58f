package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mpapenbr/pitstrategy/pkg/strategy"
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FF8700")).
	MarginTop(1)

// Table renders the stints and stops of a strategy as a table
func Table(s strategy.Strategy) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Stint", "Duration", "Laps", "Fuel", "Stop at lap", "Add fuel"})
	for i, st := range s.Stints {
		row := table.Row{i + 1, HumanDuration(st.Duration), st.Laps, st.FuelRequired, "", ""}
		if i < len(s.Stops) {
			row[4] = s.Stops[i].Lap
			row[5] = s.Stops[i].FuelToAdd
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{
		"Total", HumanDuration(s.TotalDuration()), s.TotalLaps(), s.TotalFuel(), "", "",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return t.Render()
}

// Styled renders all strategies with a styled title followed by the table
func Styled(strategies []strategy.Strategy) string {
	var b strings.Builder
	for _, s := range strategies {
		b.WriteString(titleStyle.Render(s.Kind.Title()))
		b.WriteString("\n")
		b.WriteString(Table(s))
		b.WriteString("\n")
	}
	return b.String()
}

// Text renders all strategies as plain text, using the chat format
func Text(strategies []strategy.Strategy) string {
	parts := make([]string, len(strategies))
	for i, s := range strategies {
		parts[i] = "# " + s.Kind.Title() + "\n\n" + Markdown(s)
	}
	return strings.Join(parts, "\n\n")
}

// TableMarkdownV2 renders the table as telegram MarkdownV2 code block
func TableMarkdownV2(s strategy.Strategy) string {
	code := strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(Table(s))
	return "*" + EscapeMarkdownV2(s.Kind.Title()) + "*\n```\n" + code + "\n```"
}
