package strategy

import (
	"time"

	"github.com/samber/lo"
)

type Kind int

const (
	KindSingleStint Kind = iota
	KindLongStints
	KindEqualStints
)

var kindTitles = map[Kind]string{
	KindSingleStint: "Single Stint",
	KindLongStints:  "Longer Stints",
	KindEqualStints: "Equal Stints",
}

var kindNames = map[Kind]string{
	KindSingleStint: "single",
	KindLongStints:  "long",
	KindEqualStints: "equal",
}

// Title is the human readable name of the layout
func (k Kind) Title() string {
	return kindTitles[k]
}

// String is the short identifier used in metrics and wire formats
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

func ParseKind(s string) (Kind, bool) {
	return lo.FindKey(kindNames, s)
}

type (
	Stint struct {
		Duration     time.Duration
		Laps         int
		FuelRequired uint32
	}
	Stop struct {
		Lap       int    // cumulative laps of all previous stints
		FuelToAdd uint32 // fuel required by the following stint
	}
	Strategy struct {
		Kind   Kind
		Stints []Stint
		Stops  []Stop
	}
)

// StartingFuel is the fuel to load before the start
func (s Strategy) StartingFuel() uint32 {
	if len(s.Stints) == 0 {
		return 0
	}
	return s.Stints[0].FuelRequired
}

func (s Strategy) TotalLaps() int {
	return lo.SumBy(s.Stints, func(st Stint) int { return st.Laps })
}

func (s Strategy) TotalFuel() uint32 {
	return lo.SumBy(s.Stints, func(st Stint) uint32 { return st.FuelRequired })
}

func (s Strategy) TotalDuration() time.Duration {
	return lo.SumBy(s.Stints, func(st Stint) time.Duration { return st.Duration })
}

// Calculate computes the strategies for the given input.
// With a single required stint only the single stint strategy is returned.
// Otherwise the result is [long, equal] where the long variant is left out
// if all required stops are mandatory ones anyway.
func Calculate(in Input) ([]Strategy, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.RequiredStints() == 1 {
		return []Strategy{in.singleStint()}, nil
	}
	ret := make([]Strategy, 0, 2)
	if !in.AllPitsMandatory() {
		ret = append(ret, in.longStints())
	}
	ret = append(ret, in.equalStints())
	return ret, nil
}

func (in Input) singleStint() Strategy {
	return Strategy{
		Kind:   KindSingleStint,
		Stints: in.calculateStints(in.MaxStintTime()),
		Stops:  []Stop{},
	}
}

func (in Input) longStints() Strategy {
	return in.build(KindLongStints, in.MaxStintTime())
}

// equalStints spreads the race over the required number of stints.
// The stint length is rounded up to full seconds but never exceeds the max
// stint time (only relevant for lap times with fractions of a second).
func (in Input) equalStints() Strategy {
	n := time.Duration(in.RequiredStints())
	target := time.Duration(ceilDiv(in.RaceDuration, n*time.Second)) * time.Second
	return in.build(KindEqualStints, min(target, in.MaxStintTime()))
}

func (in Input) build(kind Kind, target time.Duration) Strategy {
	stints := in.calculateStints(target)
	return Strategy{Kind: kind, Stints: stints, Stops: calculateStops(stints)}
}

func (in Input) calculateStints(target time.Duration) []Stint {
	stints := make([]Stint, 0, ceilDiv(in.RaceDuration, target))
	remaining := in.RaceDuration
	for remaining > 0 {
		d := min(remaining, target)
		stints = append(stints, Stint{
			Duration:     d,
			Laps:         int(in.lapsFor(d)),
			FuelRequired: in.FuelForStint(d),
		})
		remaining = max(remaining-d, 0)
	}
	return stints
}

func calculateStops(stints []Stint) []Stop {
	stops := make([]Stop, 0, max(len(stints)-1, 0))
	lap := 0
	for i := 1; i < len(stints); i++ {
		lap += stints[i-1].Laps
		stops = append(stops, Stop{Lap: lap, FuelToAdd: stints[i].FuelRequired})
	}
	return stops
}
