//nolint:lll // readability
package render

import (
	"strings"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstrategy/pkg/strategy"
)

func sampleStrategies(t *testing.T) []strategy.Strategy {
	t.Helper()
	ret, err := strategy.Calculate(strategy.Input{
		RaceDuration:            8640 * time.Second,
		AvgLaptime:              138 * time.Second,
		FuelPerLap:              3.93,
		FuelCapacity:            125,
		PermittedMaxStintLength: omit.From(3540 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, ret, 2)
	return ret
}

func TestMarkdown(t *testing.T) {
	equal := sampleStrategies(t)[1]
	want := "**Starting Fuel**\n83 L\n21 Laps" +
		"\n\n**Stint 1**\n48m" +
		"\n\n**Stop 1**\nLap 21\nAdd fuel: 83 L" +
		"\n\n**Stint 2**\n48m" +
		"\n\n**Stop 2**\nLap 42\nAdd fuel: 83 L" +
		"\n\n**Stint 3**\n48m"
	assert.Equal(t, want, Markdown(equal))
}

func TestMarkdown_NoStints(t *testing.T) {
	s := strategy.Strategy{Kind: strategy.KindSingleStint}
	assert.Equal(t, "**Starting Fuel**\n0 L\n0 Laps", Markdown(s))
}

func TestMarkdownV2(t *testing.T) {
	long := sampleStrategies(t)[0]
	got := MarkdownV2(long)
	assert.Equal(t, "*Longer Stints*\n\n*Starting Fuel*\n103 L\n26 Laps\n\n*Stint 1*\n59m\n\n*Stop 1*\nLap 26\nAdd fuel: 103 L\n\n*Stint 2*\n59m\n\n*Stop 2*\nLap 52\nAdd fuel: 48 L\n\n*Stint 3*\n26m", got)
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `a\.b\-c\!\_d\*`, EscapeMarkdownV2("a.b-c!_d*"))
	assert.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		arg  time.Duration
		want string
	}{
		{arg: 0, want: "0s"},
		{arg: -time.Second, want: "0s"},
		{arg: 59 * time.Second, want: "59s"},
		{arg: 48 * time.Minute, want: "48m"},
		{arg: 4554 * time.Second, want: "1h 15m 54s"},
		{arg: 1005500 * time.Millisecond, want: "16m 45s 500ms"},
		{arg: 25 * time.Hour, want: "1day 1h"},
		{arg: 48 * time.Hour, want: "2days"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanDuration(tt.arg))
		})
	}
}

func TestTable(t *testing.T) {
	long := sampleStrategies(t)[0]
	got := Table(long)
	assert.Contains(t, got, "STINT")
	assert.Contains(t, got, "TOTAL")
	assert.Contains(t, got, "2h 24m")
	assert.Contains(t, got, "59m")
	assert.Contains(t, got, "254") // total fuel
}

func TestTextAndStyled(t *testing.T) {
	all := sampleStrategies(t)
	txt := Text(all)
	assert.Contains(t, txt, "# Longer Stints\n\n**Starting Fuel**")
	assert.Contains(t, txt, "# Equal Stints\n\n**Starting Fuel**")

	styled := Styled(all)
	assert.Contains(t, styled, "Longer Stints")
	assert.Contains(t, styled, "Equal Stints")
}

func TestTableMarkdownV2(t *testing.T) {
	long := sampleStrategies(t)[0]
	got := TableMarkdownV2(long)
	assert.True(t, strings.HasPrefix(got, "*Longer Stints*\n```\n"))
	assert.True(t, strings.HasSuffix(got, "\n```"))
	assert.Contains(t, got, Table(long))
}
