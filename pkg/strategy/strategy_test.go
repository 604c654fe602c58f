//nolint:funlen,lll // readability
package strategy

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  []Strategy
	}{
		{
			name: "single stint",
			input: Input{
				RaceDuration: toDur(3600), AvgLaptime: toDur(138),
				FuelPerLap: 3.25, FuelCapacity: 110,
			},
			want: []Strategy{
				{
					Kind:   KindSingleStint,
					Stints: []Stint{{Duration: toDur(3600), Laps: 27, FuelRequired: 88}},
					Stops:  []Stop{},
				},
			},
		},
		{
			name: "equal stints with max stint time",
			input: Input{
				RaceDuration: toDur(8640), AvgLaptime: toDur(138),
				FuelPerLap: 3.93, FuelCapacity: 125,
				PermittedMaxStintLength: omit.From(toDur(3540)),
			},
			want: []Strategy{
				{
					Kind: KindLongStints,
					Stints: []Stint{
						{Duration: toDur(3540), Laps: 26, FuelRequired: 103},
						{Duration: toDur(3540), Laps: 26, FuelRequired: 103},
						{Duration: toDur(1560), Laps: 12, FuelRequired: 48},
					},
					Stops: []Stop{{Lap: 26, FuelToAdd: 103}, {Lap: 52, FuelToAdd: 48}},
				},
				{
					Kind: KindEqualStints,
					Stints: []Stint{
						{Duration: toDur(2880), Laps: 21, FuelRequired: 83},
						{Duration: toDur(2880), Laps: 21, FuelRequired: 83},
						{Duration: toDur(2880), Laps: 21, FuelRequired: 83},
					},
					Stops: []Stop{{Lap: 21, FuelToAdd: 83}, {Lap: 42, FuelToAdd: 83}},
				},
			},
		},
		{
			name: "all pits mandatory",
			input: Input{
				RaceDuration: toDur(14400), AvgLaptime: toDur(138),
				FuelPerLap: 3.25, FuelCapacity: 110,
				MandatoryPits: omit.From[uint8](3),
			},
			want: []Strategy{
				{
					Kind: KindEqualStints,
					Stints: []Stint{
						{Duration: toDur(3600), Laps: 27, FuelRequired: 88},
						{Duration: toDur(3600), Laps: 27, FuelRequired: 88},
						{Duration: toDur(3600), Laps: 27, FuelRequired: 88},
						{Duration: toDur(3600), Laps: 27, FuelRequired: 88},
					},
					Stops: []Stop{
						{Lap: 27, FuelToAdd: 88},
						{Lap: 54, FuelToAdd: 88},
						{Lap: 81, FuelToAdd: 88},
					},
				},
			},
		},
		{
			name: "zero race duration",
			input: Input{
				RaceDuration: 0, AvgLaptime: toDur(138),
				FuelPerLap: 3.25, FuelCapacity: 110,
			},
			want: []Strategy{{Kind: KindSingleStint, Stints: []Stint{}, Stops: []Stop{}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Calculate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculate_LongStints(t *testing.T) {
	in := Input{
		RaceDuration: toDur(14400), AvgLaptime: toDur(138),
		FuelPerLap: 3.25, FuelCapacity: 110,
		MandatoryPits: omit.From[uint8](3),
	}
	s := in.longStints()
	assert.Equal(t, KindLongStints, s.Kind)
	assert.Len(t, s.Stints, 4)
	assert.Len(t, s.Stops, 3)
	assert.Equal(t, 33, s.Stops[0].Lap)
	assert.Equal(t, uint32(108), s.Stops[0].FuelToAdd)
	assert.Equal(t, Stint{Duration: toDur(738), Laps: 6, FuelRequired: 20}, s.Stints[3])
	assert.Equal(t, Stop{Lap: 99, FuelToAdd: 20}, s.Stops[2])
}

func TestCalculate_EqualStints(t *testing.T) {
	in := Input{
		RaceDuration: toDur(8640), AvgLaptime: toDur(138),
		FuelPerLap: 3.93, FuelCapacity: 125,
		PermittedMaxStintLength: omit.From(toDur(3540)),
	}
	s := in.equalStints()
	assert.Len(t, s.Stints, 3)
	assert.Len(t, s.Stops, 2)
	assert.Equal(t, 21, s.Stops[0].Lap)
}

func TestCalculate_EqualStintsFractionalLaptime(t *testing.T) {
	// max fuel duration is 10 laps = 1005.5s, rounding 2011s/2 up to full
	// seconds would need an 11th lap worth of fuel
	in := Input{
		RaceDuration: toDur(2011), AvgLaptime: 100550 * time.Millisecond,
		FuelPerLap: 1, FuelCapacity: 10,
	}
	require.Equal(t, 2, in.RequiredStints())
	s := in.equalStints()
	require.Len(t, s.Stints, 2)
	for _, st := range s.Stints {
		assert.Equal(t, 10, st.Laps)
		assert.Equal(t, uint32(10), st.FuelRequired)
	}
	assert.Equal(t, in.RaceDuration, s.TotalDuration())
}

func TestCalculate_Variants(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  []Kind
	}{
		{
			name: "simple race",
			input: Input{
				RaceDuration: toDur(3600), AvgLaptime: toDur(138),
				FuelPerLap: 3.25, FuelCapacity: 110,
			},
			want: []Kind{KindSingleStint},
		},
		{
			name: "both strategies",
			input: Input{
				RaceDuration: toDur(14400), AvgLaptime: toDur(138),
				FuelPerLap: 3.90, FuelCapacity: 110,
			},
			want: []Kind{KindLongStints, KindEqualStints},
		},
		{
			name: "only one strategy where appropriate",
			input: Input{
				RaceDuration: toDur(14400), AvgLaptime: toDur(138),
				FuelPerLap: 3.90, FuelCapacity: 110,
				MandatoryPits: omit.From[uint8](3),
			},
			want: []Kind{KindEqualStints},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.input)
			require.NoError(t, err)
			kinds := make([]Kind, len(got))
			for i := range got {
				kinds[i] = got[i].Kind
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestCalculate_InvalidInput(t *testing.T) {
	_, err := Calculate(Input{RaceDuration: toDur(3600), FuelPerLap: 3, FuelCapacity: 100})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// checks the general properties on a deterministic set of generated inputs
func TestCalculate_Properties(t *testing.T) {
	rnd := rand.New(rand.NewPCG(20, 26))
	for i := 0; i < 2000; i++ {
		in := Input{
			RaceDuration: toDur(rnd.IntN(24*3600) + 1),
			AvgLaptime:   time.Duration(rnd.IntN(200_000)+60_000) * time.Millisecond,
			FuelPerLap:   float64(rnd.IntN(550)+50) / 100,
			FuelCapacity: uint32(rnd.IntN(120) + 20),
		}
		if i%4 == 0 {
			// tiny consumption and huge tanks
			in.FuelPerLap = float64(rnd.IntN(50)+1) / 1000
			in.FuelCapacity = math.MaxUint32 - uint32(rnd.IntN(1_000_000))
		}
		if rnd.IntN(2) == 0 {
			in.MandatoryPits = omit.From(uint8(rnd.IntN(8)))
		}
		if rnd.IntN(2) == 0 {
			in.PermittedMaxStintLength = omit.From(toDur(rnd.IntN(7200) + 600))
		}
		got, err := Calculate(in)
		require.NoError(t, err, "input %+v", in)

		required := in.RequiredStints()
		switch {
		case required == 1:
			require.Len(t, got, 1)
			assert.Equal(t, KindSingleStint, got[0].Kind)
			assert.Empty(t, got[0].Stops)
		case in.AllPitsMandatory():
			require.Len(t, got, 1)
			assert.Equal(t, KindEqualStints, got[0].Kind)
		default:
			require.Len(t, got, 2)
			assert.Equal(t, KindLongStints, got[0].Kind)
			assert.Equal(t, KindEqualStints, got[1].Kind)
		}

		for _, s := range got {
			assert.Len(t, s.Stops, len(s.Stints)-1)
			assert.Equal(t, in.RaceDuration, s.TotalDuration())
			for j := 1; j < len(s.Stops); j++ {
				assert.Greater(t, s.Stops[j].Lap, s.Stops[j-1].Lap)
			}
			for j := range s.Stints {
				assert.Positive(t, s.Stints[j].Duration)
				assert.Positive(t, s.Stints[j].Laps)
				assert.LessOrEqual(t, s.Stints[j].Duration, in.MaxStintTime())
				assert.LessOrEqual(t, s.Stints[j].FuelRequired, in.FuelCapacity)
			}
			if s.Kind == KindEqualStints {
				assert.LessOrEqual(t, len(s.Stints), required)
			}
		}
		assert.LessOrEqual(t, in.FuelForStint(in.MaxFuelDuration()), in.FuelCapacity)
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "Single Stint", KindSingleStint.Title())
	assert.Equal(t, "Longer Stints", KindLongStints.Title())
	assert.Equal(t, "Equal Stints", KindEqualStints.Title())
	k, ok := ParseKind("equal")
	assert.True(t, ok)
	assert.Equal(t, KindEqualStints, k)
	_, ok = ParseKind("other")
	assert.False(t, ok)
}
