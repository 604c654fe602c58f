package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/mpapenbr/pitstrategy/pkg/strategy"
)

// Markdown renders the strategy in the chat format:
// starting fuel, then each stint followed by the stop after it.
func Markdown(s strategy.Strategy) string {
	return markdown(s, "**%s**", func(v string) string { return v })
}

// MarkdownV2 renders the strategy including its title for telegram
// messages using the MarkdownV2 parse mode.
func MarkdownV2(s strategy.Strategy) string {
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(EscapeMarkdownV2(s.Kind.Title()))
	b.WriteString("*\n\n")
	b.WriteString(markdown(s, "*%s*", EscapeMarkdownV2))
	return b.String()
}

func markdown(s strategy.Strategy, bold string, esc func(string) string) string {
	var b strings.Builder
	heading := func(text string) {
		b.WriteString(fmt.Sprintf(bold, esc(text)))
		b.WriteString("\n")
	}
	laps := 0
	if len(s.Stints) > 0 {
		laps = s.Stints[0].Laps
	}
	heading("Starting Fuel")
	b.WriteString(esc(fmt.Sprintf("%d L\n%d Laps", s.StartingFuel(), laps)))
	for i := range s.Stints {
		b.WriteString("\n\n")
		heading(fmt.Sprintf("Stint %d", i+1))
		b.WriteString(esc(HumanDuration(s.Stints[i].Duration)))
		if i < len(s.Stops) {
			b.WriteString("\n\n")
			heading(fmt.Sprintf("Stop %d", i+1))
			b.WriteString(esc(fmt.Sprintf("Lap %d\nAdd fuel: %d L",
				s.Stops[i].Lap, s.Stops[i].FuelToAdd)))
		}
	}
	return b.String()
}

// characters which must be escaped in telegram MarkdownV2 texts
var markdownV2Replacer = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

func EscapeMarkdownV2(s string) string {
	return markdownV2Replacer.Replace(s)
}

var durationUnits = []struct {
	singular string
	plural   string
	size     time.Duration
}{
	{"day", "days", 24 * time.Hour},
	{"h", "h", time.Hour},
	{"m", "m", time.Minute},
	{"s", "s", time.Second},
	{"ms", "ms", time.Millisecond},
	{"us", "us", time.Microsecond},
	{"ns", "ns", time.Nanosecond},
}

// HumanDuration formats d like "1h 15m 54s". Zero units are left out.
func HumanDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	parts := make([]string, 0, len(durationUnits))
	for _, u := range durationUnits {
		n := d / u.size
		if n == 0 {
			continue
		}
		d -= n * u.size
		unit := u.plural
		if n == 1 {
			unit = u.singular
		}
		parts = append(parts, fmt.Sprintf("%d%s", n, unit))
	}
	return strings.Join(parts, " ")
}
