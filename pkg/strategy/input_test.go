//nolint:funlen,dupl // readability
package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/stretchr/testify/assert"
)

// converts sec to time.Duration
func toDur(secs int) time.Duration { return time.Duration(secs) * time.Second }

func TestInput_RequiredStints(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  int
	}{
		{
			name: "fuel only",
			input: Input{
				RaceDuration: toDur(7200), AvgLaptime: toDur(138),
				FuelPerLap: 3.93, FuelCapacity: 110,
			},
			want: 2,
		},
		{
			name: "fuel only, short race",
			input: Input{
				RaceDuration: toDur(600), AvgLaptime: toDur(138),
				FuelPerLap: 3.93, FuelCapacity: 110,
			},
			want: 1,
		},
		{
			name: "mandatory pits",
			input: Input{
				RaceDuration: toDur(7200), AvgLaptime: toDur(138),
				FuelPerLap: 3.93, FuelCapacity: 110,
				MandatoryPits: omit.From[uint8](2),
			},
			want: 3,
		},
		{
			name: "mandatory pits, short race",
			input: Input{
				RaceDuration: toDur(600), AvgLaptime: toDur(138),
				FuelPerLap: 3.93, FuelCapacity: 110,
				MandatoryPits: omit.From[uint8](2),
			},
			want: 3,
		},
		{
			name: "max stint time",
			input: Input{
				RaceDuration: toDur(7200), AvgLaptime: toDur(138),
				FuelPerLap: 3.93, FuelCapacity: 125,
				PermittedMaxStintLength: omit.From(toDur(3540)),
			},
			want: 3,
		},
		{
			name: "zero race duration",
			input: Input{
				RaceDuration: 0, AvgLaptime: toDur(138),
				FuelPerLap: 3.93, FuelCapacity: 110,
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.input.Validate())
			assert.Equal(t, tt.want, tt.input.RequiredStints())
		})
	}
}

func TestInput_AllPitsMandatory(t *testing.T) {
	base := Input{
		RaceDuration: toDur(7200), AvgLaptime: toDur(138),
		FuelPerLap: 3.93, FuelCapacity: 125,
		PermittedMaxStintLength: omit.From(toDur(3540)),
	}
	tests := []struct {
		name string
		pits omit.Val[uint8]
		want bool
	}{
		{name: "no mandatory pits", pits: omit.Val[uint8]{}, want: false},
		{name: "one mandatory pit", pits: omit.From[uint8](1), want: false},
		{name: "two mandatory pits", pits: omit.From[uint8](2), want: true},
		{name: "more than needed", pits: omit.From[uint8](5), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			in.MandatoryPits = tt.pits
			assert.Equal(t, tt.want, in.AllPitsMandatory())
		})
	}
}

func TestInput_DerivedQuantities(t *testing.T) {
	in := Input{
		RaceDuration: toDur(14400), AvgLaptime: toDur(138),
		FuelPerLap: 3.25, FuelCapacity: 110,
	}
	// 110/3.25 = 33.8 laps, the partial lap is discarded
	assert.Equal(t, toDur(33*138), in.FuelDuration(110))
	assert.Equal(t, toDur(33*138), in.MaxFuelDuration())
	assert.Equal(t, toDur(0), in.FuelDuration(3))
	// 27 laps (26.08 rounded up) * 3.25 = 87.75
	assert.Equal(t, uint32(88), in.FuelForStint(toDur(3600)))
	assert.Equal(t, uint32(0), in.FuelForStint(0))
	assert.Equal(t, in.MaxFuelDuration(), in.MaxStintTime())
	assert.Equal(t, 4, in.FuelRequiredStints())
	assert.Equal(t, 1, in.MandatoryPitsRequiredStints())
	assert.Equal(t, 1, in.PermittedStintLengthRequiredStints())

	in.PermittedMaxStintLength = omit.From(toDur(3000))
	in.MandatoryPits = omit.From[uint8](6)
	assert.Equal(t, toDur(3000), in.MaxStintTime())
	assert.Equal(t, 5, in.PermittedStintLengthRequiredStints())
	assert.Equal(t, 7, in.MandatoryPitsRequiredStints())
	assert.Equal(t, 7, in.RequiredStints())
}

func TestInput_ExactBoundaries(t *testing.T) {
	t.Run("capacity is an exact multiple of fuel per lap", func(t *testing.T) {
		// 11/1.1 and 10*1.1 are not exact in binary floating point
		in := Input{AvgLaptime: toDur(100), FuelPerLap: 1.1, FuelCapacity: 11}
		assert.Equal(t, toDur(1000), in.MaxFuelDuration())
		assert.Equal(t, uint32(11), in.FuelForStint(in.MaxFuelDuration()))
	})
	t.Run("stint ends exactly on a lap boundary", func(t *testing.T) {
		in := Input{AvgLaptime: toDur(120), FuelPerLap: 2, FuelCapacity: 60}
		assert.Equal(t, uint32(60), in.FuelForStint(toDur(3600)))
		assert.Equal(t, uint32(62), in.FuelForStint(toDur(3601)))
	})
	t.Run("race is an exact multiple of max fuel duration", func(t *testing.T) {
		in := Input{
			RaceDuration: toDur(7200), AvgLaptime: toDur(120),
			FuelPerLap: 2, FuelCapacity: 60,
		}
		assert.Equal(t, 2, in.FuelRequiredStints())
		in.RaceDuration = toDur(7201)
		assert.Equal(t, 3, in.FuelRequiredStints())
	})
	t.Run("permitted stint length equals max fuel duration", func(t *testing.T) {
		in := Input{
			RaceDuration: toDur(7200), AvgLaptime: toDur(120),
			FuelPerLap: 2, FuelCapacity: 60,
			PermittedMaxStintLength: omit.From(toDur(3600)),
			MandatoryPits:           omit.From[uint8](1),
		}
		assert.Equal(t, toDur(3600), in.MaxStintTime())
		assert.Equal(t, 2, in.RequiredStints())
		assert.True(t, in.AllPitsMandatory())
	})
	t.Run("sub second lap times", func(t *testing.T) {
		in := Input{
			AvgLaptime: 92345 * time.Millisecond, FuelPerLap: 2.37, FuelCapacity: 100,
		}
		// 42 laps
		assert.Equal(t, 42*in.AvgLaptime, in.MaxFuelDuration())
		assert.LessOrEqual(t, in.FuelForStint(in.MaxFuelDuration()), in.FuelCapacity)
	})
}

func TestInput_Validate(t *testing.T) {
	valid := Input{
		RaceDuration: toDur(3600), AvgLaptime: toDur(100),
		FuelPerLap: 2.5, FuelCapacity: 100,
	}
	tests := []struct {
		name   string
		modify func(in *Input)
	}{
		{name: "zero lap time", modify: func(in *Input) { in.AvgLaptime = 0 }},
		{name: "negative lap time", modify: func(in *Input) { in.AvgLaptime = -time.Second }},
		{name: "zero fuel per lap", modify: func(in *Input) { in.FuelPerLap = 0 }},
		{name: "negative fuel per lap", modify: func(in *Input) { in.FuelPerLap = -1 }},
		{name: "NaN fuel per lap", modify: func(in *Input) { in.FuelPerLap = math.NaN() }},
		{name: "Inf fuel per lap", modify: func(in *Input) { in.FuelPerLap = math.Inf(1) }},
		{name: "zero capacity", modify: func(in *Input) { in.FuelCapacity = 0 }},
		{name: "negative race", modify: func(in *Input) { in.RaceDuration = -time.Second }},
		{name: "zero max stint", modify: func(in *Input) {
			in.PermittedMaxStintLength = omit.From(time.Duration(0))
		}},
		{name: "tank too small for a lap", modify: func(in *Input) { in.FuelCapacity = 2 }},
		{name: "race too long", modify: func(in *Input) {
			in.RaceDuration = MaxRaceDuration + time.Second
		}},
		{name: "too many stints", modify: func(in *Input) {
			in.RaceDuration = 24 * time.Hour
			in.PermittedMaxStintLength = omit.From(time.Minute)
		}},
	}
	assert.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.modify(&in)
			err := in.Validate()
			assert.True(t, errors.Is(err, ErrInvalidInput), "got %v", err)
		})
	}
}

func TestInput_HugeTank(t *testing.T) {
	in := Input{
		RaceDuration: toDur(3600), AvgLaptime: toDur(138), FuelPerLap: 0.001,
	}
	for _, capacity := range []uint32{100_000, math.MaxUint32} {
		in.FuelCapacity = capacity
		assert.NoError(t, in.Validate())
		assert.Equal(t, time.Duration(math.MaxInt64), in.MaxFuelDuration())
		assert.Equal(t, time.Duration(math.MaxInt64), in.MaxStintTime())
		assert.Equal(t, 1, in.FuelRequiredStints())
		assert.Equal(t, 1, in.RequiredStints())
		assert.LessOrEqual(t, in.FuelForStint(in.MaxFuelDuration()), in.FuelCapacity)

		got, err := Calculate(in)
		assert.NoError(t, err)
		if assert.Len(t, got, 1) {
			assert.Equal(t, KindSingleStint, got[0].Kind)
			assert.Empty(t, got[0].Stops)
			assert.Equal(t,
				[]Stint{{Duration: toDur(3600), Laps: 27, FuelRequired: 1}},
				got[0].Stints)
		}
	}

	// below saturation the exact duration is kept
	in.FuelCapacity = 10_000
	assert.NoError(t, in.Validate())
	assert.Equal(t, time.Duration(10_000_000)*in.AvgLaptime, in.MaxFuelDuration())
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, int64(0), ceilDiv(0, time.Second))
	assert.Equal(t, int64(2), ceilDiv(3*time.Second, 2*time.Second))
	assert.Equal(t, int64(1), ceilDiv(time.Hour, math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64/toDur(138))+1, ceilDiv(math.MaxInt64, toDur(138)))
}
