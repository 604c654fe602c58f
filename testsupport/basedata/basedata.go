package basedata

import (
	"log"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/pitstrategy/pkg/model"
	"github.com/mpapenbr/pitstrategy/pkg/strategy"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

// SampleInput is a four hour race with two mandatory pit stops.
// It results in a long and an equal stint strategy.
func SampleInput() strategy.Input {
	return strategy.Input{
		RaceDuration:  4 * time.Hour,
		AvgLaptime:    138 * time.Second,
		FuelPerLap:    3.25,
		FuelCapacity:  110,
		MandatoryPits: omit.From[uint8](2),
	}
}

// SamplePlan creates a plan with a fixed id and creation time.
// The offset is added to the creation time.
func SamplePlan(id, source, requester string, offset time.Duration) *model.Plan {
	in := SampleInput()
	res, err := strategy.Calculate(in)
	if err != nil {
		log.Fatalf("SamplePlan: %v\n", err)
	}
	return &model.Plan{
		ID:         uuid.Must(uuid.FromString(id)),
		Created:    TestTime().Add(offset),
		Source:     source,
		Requester:  requester,
		Input:      model.FromInput(in),
		Strategies: model.FromStrategies(res),
	}
}
