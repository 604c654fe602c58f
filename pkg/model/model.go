package model

import (
	"math"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"

	"github.com/mpapenbr/pitstrategy/pkg/strategy"
)

// durations are transferred as (fractional) seconds
type (
	Input struct {
		RaceDuration  float64  `json:"raceDuration" yaml:"raceDuration"`
		AvgLaptime    float64  `json:"avgLaptime" yaml:"avgLaptime"`
		FuelPerLap    float64  `json:"fuelPerLap" yaml:"fuelPerLap"`
		FuelCapacity  uint32   `json:"fuelCapacity" yaml:"fuelCapacity"`
		MandatoryPits *uint8   `json:"mandatoryPits,omitempty" yaml:"mandatoryPits,omitempty"`
		MaxStint      *float64 `json:"maxStint,omitempty" yaml:"maxStint,omitempty"`
	}
	Stint struct {
		Duration     float64 `json:"duration" yaml:"duration"`
		Laps         int     `json:"laps" yaml:"laps"`
		FuelRequired uint32  `json:"fuelRequired" yaml:"fuelRequired"`
	}
	Stop struct {
		Lap       int    `json:"lap" yaml:"lap"`
		FuelToAdd uint32 `json:"fuelToAdd" yaml:"fuelToAdd"`
	}
	Strategy struct {
		Kind         string  `json:"kind" yaml:"kind"`
		Title        string  `json:"title" yaml:"title"`
		StartingFuel uint32  `json:"startingFuel" yaml:"startingFuel"`
		TotalLaps    int     `json:"totalLaps" yaml:"totalLaps"`
		Stints       []Stint `json:"stints" yaml:"stints"`
		Stops        []Stop  `json:"stops" yaml:"stops"`
	}
	// Plan is a stored calculation
	Plan struct {
		ID         uuid.UUID  `json:"id" yaml:"id"`
		Created    time.Time  `json:"created" yaml:"created"`
		Source     string     `json:"source" yaml:"source"`       // bot, server, ...
		Requester  string     `json:"requester" yaml:"requester"` // chat or user
		Input      Input      `json:"input" yaml:"input"`
		Strategies []Strategy `json:"strategies" yaml:"strategies"`
	}
)

func NewPlan(source, requester string, in strategy.Input, res []strategy.Strategy) (*Plan, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Plan{
		ID:         id,
		Created:    time.Now().UTC().Truncate(time.Microsecond),
		Source:     source,
		Requester:  requester,
		Input:      FromInput(in),
		Strategies: FromStrategies(res),
	}, nil
}

func FromInput(in strategy.Input) Input {
	ret := Input{
		RaceDuration: in.RaceDuration.Seconds(),
		AvgLaptime:   in.AvgLaptime.Seconds(),
		FuelPerLap:   in.FuelPerLap,
		FuelCapacity: in.FuelCapacity,
	}
	if pits, ok := in.MandatoryPits.Get(); ok {
		ret.MandatoryPits = &pits
	}
	if d, ok := in.PermittedMaxStintLength.Get(); ok {
		secs := d.Seconds()
		ret.MaxStint = &secs
	}
	return ret
}

func (in Input) ToStrategyInput() strategy.Input {
	ret := strategy.Input{
		RaceDuration: fromSeconds(in.RaceDuration),
		AvgLaptime:   fromSeconds(in.AvgLaptime),
		FuelPerLap:   in.FuelPerLap,
		FuelCapacity: in.FuelCapacity,
	}
	if in.MandatoryPits != nil {
		ret.MandatoryPits = omit.From(*in.MandatoryPits)
	}
	if in.MaxStint != nil {
		ret.PermittedMaxStintLength = omit.From(fromSeconds(*in.MaxStint))
	}
	return ret
}

func FromStrategies(res []strategy.Strategy) []Strategy {
	return lo.Map(res, func(s strategy.Strategy, _ int) Strategy {
		return FromStrategy(s)
	})
}

func FromStrategy(s strategy.Strategy) Strategy {
	return Strategy{
		Kind:         s.Kind.String(),
		Title:        s.Kind.Title(),
		StartingFuel: s.StartingFuel(),
		TotalLaps:    s.TotalLaps(),
		Stints: lo.Map(s.Stints, func(st strategy.Stint, _ int) Stint {
			return Stint{
				Duration:     st.Duration.Seconds(),
				Laps:         st.Laps,
				FuelRequired: st.FuelRequired,
			}
		}),
		Stops: lo.Map(s.Stops, func(st strategy.Stop, _ int) Stop {
			return Stop{Lap: st.Lap, FuelToAdd: st.FuelToAdd}
		}),
	}
}

// ToStrategy converts back to the calculator type.
// Unknown kinds are mapped to the single stint kind.
func (s Strategy) ToStrategy() strategy.Strategy {
	kind, _ := strategy.ParseKind(s.Kind)
	return strategy.Strategy{
		Kind: kind,
		Stints: lo.Map(s.Stints, func(st Stint, _ int) strategy.Stint {
			return strategy.Stint{
				Duration:     fromSeconds(st.Duration),
				Laps:         st.Laps,
				FuelRequired: st.FuelRequired,
			}
		}),
		Stops: lo.Map(s.Stops, func(st Stop, _ int) strategy.Stop {
			return strategy.Stop{Lap: st.Lap, FuelToAdd: st.FuelToAdd}
		}),
	}
}

// fromSeconds saturates at the limits of time.Duration, NaN maps to the lower one
func fromSeconds(secs float64) time.Duration {
	d := math.Round(secs * float64(time.Second))
	switch {
	case math.IsNaN(d) || d <= math.MinInt64:
		return math.MinInt64
	case d >= math.MaxInt64:
		return math.MaxInt64
	}
	return time.Duration(d)
}
