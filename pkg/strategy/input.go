package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid strategy input")

const (
	// MaxRaceDuration is the longest race accepted for a calculation.
	MaxRaceDuration = 7 * 24 * time.Hour
	// MaxStints caps the number of stints a single calculation may produce.
	MaxStints = 1000
)

type (
	// Input describes the race and the car. The derived quantities below
	// expect an input that passed Validate.
	Input struct {
		RaceDuration time.Duration // total race time
		AvgLaptime   time.Duration // average time of one lap
		FuelPerLap   float64       // fuel consumed per lap
		FuelCapacity uint32        // max fuel the car can carry
		// number of stops required by the rules (each one includes a tire change)
		MandatoryPits omit.Val[uint8]
		// regulatory ceiling on a single stint
		PermittedMaxStintLength omit.Val[time.Duration]
	}
)

func (in Input) Validate() error {
	switch {
	case in.AvgLaptime <= 0:
		return fmt.Errorf("%w: average lap time must be positive (got %v)",
			ErrInvalidInput, in.AvgLaptime)
	case math.IsNaN(in.FuelPerLap) || math.IsInf(in.FuelPerLap, 0) || in.FuelPerLap <= 0:
		return fmt.Errorf("%w: fuel per lap must be positive (got %v)",
			ErrInvalidInput, in.FuelPerLap)
	case in.FuelCapacity == 0:
		return fmt.Errorf("%w: fuel capacity must be positive", ErrInvalidInput)
	case in.RaceDuration < 0:
		return fmt.Errorf("%w: race duration must not be negative (got %v)",
			ErrInvalidInput, in.RaceDuration)
	case in.RaceDuration > MaxRaceDuration:
		return fmt.Errorf("%w: race duration %v exceeds %v",
			ErrInvalidInput, in.RaceDuration, MaxRaceDuration)
	}
	if d, ok := in.PermittedMaxStintLength.Get(); ok && d <= 0 {
		return fmt.Errorf("%w: max stint length must be positive (got %v)",
			ErrInvalidInput, d)
	}
	if in.MaxFuelDuration() <= 0 {
		return fmt.Errorf("%w: a full tank (%d) does not last a single lap at %v per lap",
			ErrInvalidInput, in.FuelCapacity, in.FuelPerLap)
	}
	if n := in.RequiredStints(); n > MaxStints {
		return fmt.Errorf("%w: race needs %d stints, at most %d are supported",
			ErrInvalidInput, n, MaxStints)
	}
	return nil
}

// FuelDuration returns how long the car can drive with the given fuel.
// Fuel for a partial lap is discarded since it cannot complete another lap.
// The result saturates at math.MaxInt64 for fuel that outlasts any
// representable duration.
func (in Input) FuelDuration(fuel uint32) time.Duration {
	laps := decimal.NewFromInt(int64(fuel)).Div(in.fuelPerLap()).Floor()
	if laps.GreaterThan(decimal.NewFromInt(int64(math.MaxInt64 / in.AvgLaptime))) {
		return math.MaxInt64
	}
	return time.Duration(laps.IntPart()) * in.AvgLaptime
}

// MaxFuelDuration is the longest stint a full tank permits.
func (in Input) MaxFuelDuration() time.Duration {
	return in.FuelDuration(in.FuelCapacity)
}

// FuelForStint returns the fuel needed to drive a stint of the given length.
// A partial lap consumes the fuel of a full lap, the result is rounded up.
func (in Input) FuelForStint(length time.Duration) uint32 {
	laps := in.lapsFor(length)
	fuel := decimal.NewFromInt(laps).Mul(in.fuelPerLap()).Ceil()
	if fuel.GreaterThan(decimal.NewFromInt(math.MaxUint32)) {
		return math.MaxUint32
	}
	return uint32(fuel.IntPart())
}

// MaxStintTime is the longest stint allowed by fuel and regulations.
func (in Input) MaxStintTime() time.Duration {
	maxFuel := in.MaxFuelDuration()
	if permitted, ok := in.PermittedMaxStintLength.Get(); ok {
		return min(permitted, maxFuel)
	}
	return maxFuel
}

// FuelRequiredStints is the number of stints needed because of fuel range only.
func (in Input) FuelRequiredStints() int {
	return int(ceilDiv(in.RaceDuration, in.MaxFuelDuration()))
}

func (in Input) MandatoryPitsRequiredStints() int {
	if pits, ok := in.MandatoryPits.Get(); ok {
		return int(pits) + 1
	}
	return 1
}

func (in Input) PermittedStintLengthRequiredStints() int {
	if permitted, ok := in.PermittedMaxStintLength.Get(); ok {
		return int(ceilDiv(in.RaceDuration, permitted))
	}
	return 1
}

// RequiredStints is the number of stints demanded by the binding constraint.
func (in Input) RequiredStints() int {
	return lo.Max([]int{
		in.FuelRequiredStints(),
		in.MandatoryPitsRequiredStints(),
		in.PermittedStintLengthRequiredStints(),
	})
}

// AllPitsMandatory reports whether every stop forced by fuel or regulations
// is already covered by the mandatory pit stops.
func (in Input) AllPitsMandatory() bool {
	pits, ok := in.MandatoryPits.Get()
	if !ok {
		return false
	}
	timeRequiredStints := ceilDiv(in.RaceDuration, in.MaxStintTime())
	return timeRequiredStints-1 <= int64(pits)
}

func (in Input) lapsFor(length time.Duration) int64 {
	return ceilDiv(length, in.AvgLaptime)
}

func (in Input) fuelPerLap() decimal.Decimal {
	return decimal.NewFromFloat(in.FuelPerLap)
}

// ceilDiv returns ceil(a/b) for a >= 0 and b > 0
func ceilDiv(a, b time.Duration) int64 {
	if a <= 0 {
		return 0
	}
	q := a / b
	if a%b != 0 {
		q++
	}
	return int64(q)
}
