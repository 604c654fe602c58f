package parse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/pitstrategy/pkg/strategy"
)

// Usage describes the arguments accepted by ParseArgs
const Usage = "<race length: minutes or HH:MM> <lap time: MM:SS> <fuel per lap> " +
	"<fuel capacity> [<mandatory pits> <max stint length: minutes or HH:MM>]"

// NotSet may be used for the optional arguments
const NotSet = "-"

var ErrInvalidArgument = errors.New("invalid argument")

// ParseArgs creates the strategy input from the whitespace separated user
// arguments. Either none or both of the optional arguments must be given.
func ParseArgs(fields []string) (strategy.Input, error) {
	ret := strategy.Input{}
	if len(fields) != 4 && len(fields) != 6 {
		return ret, fmt.Errorf("%w: expected 4 or 6 arguments, got %d",
			ErrInvalidArgument, len(fields))
	}
	var err error
	if ret.RaceDuration, err = ParseMinutesOrHHMM(fields[0]); err != nil {
		return ret, fieldError("race length", err)
	}
	if ret.AvgLaptime, err = ParseMMSS(fields[1]); err != nil {
		return ret, fieldError("lap time", err)
	}
	if ret.FuelPerLap, err = ParseFuel(fields[2]); err != nil {
		return ret, fieldError("fuel per lap", err)
	}
	if ret.FuelCapacity, err = ParseCapacity(fields[3]); err != nil {
		return ret, fieldError("fuel capacity", err)
	}
	if len(fields) == 6 {
		if fields[4] != NotSet {
			pits, err := ParsePits(fields[4])
			if err != nil {
				return ret, fieldError("mandatory pits", err)
			}
			ret.MandatoryPits = omit.From(pits)
		}
		if fields[5] != NotSet {
			d, err := ParseMinutesOrHHMM(fields[5])
			if err != nil {
				return ret, fieldError("max stint length", err)
			}
			if d == 0 {
				return ret, fieldError("max stint length",
					fmt.Errorf("%w: must be positive", ErrInvalidArgument))
			}
			ret.PermittedMaxStintLength = omit.From(d)
		}
	}
	return ret, nil
}

// ParseMinutesOrHHMM parses "90" as 90 minutes and "1:30" as one hour and
// 30 minutes.
func ParseMinutesOrHHMM(s string) (time.Duration, error) {
	if !strings.Contains(s, ":") {
		minutes, err := parseUint(s, 32)
		if err != nil {
			return 0, err
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	hours, minutes, err := splitPair(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

// ParseMMSS parses lap times like "2:18". The colon is mandatory.
func ParseMMSS(s string) (time.Duration, error) {
	if !strings.Contains(s, ":") {
		return 0, fmt.Errorf("%w: %q is not in MM:SS format", ErrInvalidArgument, s)
	}
	minutes, seconds, err := splitPair(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

func ParseFuel(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidArgument, s)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidArgument, s)
	}
	f, _ := d.Float64()
	return f, nil
}

func ParseCapacity(s string) (uint32, error) {
	v, err := parseUint(s, 32)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidArgument, s)
	}
	return uint32(v), nil
}

func ParsePits(s string) (uint8, error) {
	v, err := parseUint(s, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// splitPair splits "a:b" into exactly two numbers where b is below 60
func splitPair(s string) (first, second uint64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q must contain exactly two parts",
			ErrInvalidArgument, s)
	}
	if first, err = parseUint(parts[0], 32); err != nil {
		return 0, 0, err
	}
	if second, err = parseUint(parts[1], 32); err != nil {
		return 0, 0, err
	}
	if second >= 60 {
		return 0, 0, fmt.Errorf("%w: %q second part must be less than 60",
			ErrInvalidArgument, s)
	}
	return first, second, nil
}

func parseUint(s string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid number", ErrInvalidArgument, s)
	}
	return v, nil
}

func fieldError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}
