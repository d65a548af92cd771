package hiring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/pkg/common"
)

func day(d int, hour int) time.Time {
	return time.Date(2024, 8, d, hour, 0, 0, 0, time.UTC)
}

func TestCalculateTotalCost_PerDay(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		baseRate float64
		expected float64
	}{
		{"exactly 24 hours is one day", day(15, 8), day(16, 8), 10000, 10000},
		{"partial second day rounds up", day(15, 8), day(16, 9), 10000, 20000},
		{"three full days", day(15, 8), day(18, 8), 10000, 30000},
		{"two hours still charges a day", day(15, 8), day(15, 10), 10000, 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Hiring{
				RateType:  RatePerDay,
				BaseRate:  tt.baseRate,
				StartDate: tt.start,
				EndDate:   tt.end,
				TripType:  TripOneWay,
			}
			cost, err := CalculateTotalCost(h, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cost)
		})
	}
}

func TestCalculateTotalCost_PerHour(t *testing.T) {
	h := &Hiring{
		RateType:  RatePerHour,
		BaseRate:  500,
		StartDate: day(15, 8),
		EndDate:   day(15, 8).Add(3*time.Hour + 20*time.Minute),
		TripType:  TripOneWay,
	}

	cost, err := CalculateTotalCost(h, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 2000.0, cost, "3h20m rounds up to 4 hours")
}

func TestCalculateTotalCost_PerKilometer(t *testing.T) {
	h := &Hiring{
		RateType:          RatePerKilometer,
		BaseRate:          120,
		EstimatedDistance: 250,
		StartDate:         day(15, 8),
		EndDate:           day(15, 18),
		TripType:          TripOneWay,
	}

	cost, err := CalculateTotalCost(h, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 30000.0, cost)
}

func TestCalculateTotalCost_PerKilometerRequiresDistance(t *testing.T) {
	h := &Hiring{
		RateType:  RatePerKilometer,
		BaseRate:  120,
		StartDate: day(15, 8),
		EndDate:   day(15, 18),
	}

	_, err := CalculateTotalCost(h, nil, nil)

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeBadRequest))
}

func TestCalculateTotalCost_Fixed(t *testing.T) {
	h := &Hiring{
		RateType:  RateFixed,
		BaseRate:  85000,
		StartDate: day(15, 8),
		EndDate:   day(20, 8),
		TripType:  TripOneWay,
	}

	cost, err := CalculateTotalCost(h, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 85000.0, cost, "fixed rate ignores duration")
}

func TestCalculateTotalCost_RouteBased(t *testing.T) {
	routeID := uuid.New()
	route := &fleet.Route{ID: routeID, BaseFare: 15000}
	bus := &fleet.Bus{Capacity: 25}

	tests := []struct {
		name       string
		baseRate   float64
		multiplier float64
		tripType   TripType
		expected   float64
	}{
		{"multiplier 1 one-way", 0, 1, TripOneWay, 375000},
		{"multiplier 2 one-way", 0, 2, TripOneWay, 750000},
		{"multiplier 1 round-trip doubles", 0, 1, TripRoundTrip, 750000},
		{"explicit base rate overrides route fare", 20000, 1, TripOneWay, 500000},
		{"zero multiplier clamps to 1", 0, 0, TripOneWay, 375000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Hiring{
				RateType:             RateRouteBased,
				RouteID:              &routeID,
				BaseRate:             tt.baseRate,
				RoutePriceMultiplier: tt.multiplier,
				StartDate:            day(15, 8),
				EndDate:              day(18, 8),
				TripType:             tt.tripType,
			}
			cost, err := CalculateTotalCost(h, route, bus)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cost)
		})
	}
}

func TestCalculateTotalCost_RouteBasedIgnoresDuration(t *testing.T) {
	routeID := uuid.New()
	route := &fleet.Route{ID: routeID, BaseFare: 15000}
	bus := &fleet.Bus{Capacity: 25}

	short := &Hiring{
		RateType: RateRouteBased, RouteID: &routeID, RoutePriceMultiplier: 1,
		StartDate: day(15, 8), EndDate: day(15, 12), TripType: TripOneWay,
	}
	long := &Hiring{
		RateType: RateRouteBased, RouteID: &routeID, RoutePriceMultiplier: 1,
		StartDate: day(15, 8), EndDate: day(25, 8), TripType: TripOneWay,
	}

	shortCost, err := CalculateTotalCost(short, route, bus)
	require.NoError(t, err)
	longCost, err := CalculateTotalCost(long, route, bus)
	require.NoError(t, err)

	assert.Equal(t, shortCost, longCost)
}

func TestCalculateTotalCost_RouteBasedErrors(t *testing.T) {
	routeID := uuid.New()

	h := &Hiring{RateType: RateRouteBased, StartDate: day(15, 8), EndDate: day(16, 8)}
	_, err := CalculateTotalCost(h, nil, nil)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeBadRequest), "no linked route")

	h.RouteID = &routeID
	_, err = CalculateTotalCost(h, nil, nil)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeNotFound), "unresolvable route or bus")
}

func TestCalculateTotalCost_AllowanceOvertimeAndCharges(t *testing.T) {
	// 30 hours per-day: 2 chargeable days, 16 allotted hours, 14 overtime
	// hours. 2*10000 + 5000 allowance + 14*200 overtime + 1500 charges.
	h := &Hiring{
		RateType:        RatePerDay,
		BaseRate:        10000,
		StartDate:       day(15, 8),
		EndDate:         day(16, 14),
		TripType:        TripOneWay,
		DriverAllowance: 5000,
		OvertimeRate:    200,
		AdditionalCharges: []Charge{
			{Description: "fuel surcharge", Amount: 1000},
			{Description: "toll fees", Amount: 500},
		},
	}

	cost, err := CalculateTotalCost(h, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 29300.0, cost)
}

func TestCalculateTotalCost_NoOvertimeWithinAllottedHours(t *testing.T) {
	// 6 hours on one chargeable day: under the 8 hour allotment
	h := &Hiring{
		RateType:     RatePerDay,
		BaseRate:     10000,
		StartDate:    day(15, 8),
		EndDate:      day(15, 14),
		TripType:     TripOneWay,
		OvertimeRate: 200,
	}

	cost, err := CalculateTotalCost(h, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 10000.0, cost)
}

func TestCalculateTotalCost_RoundTripDoublesEverything(t *testing.T) {
	h := &Hiring{
		RateType:        RateFixed,
		BaseRate:        10000,
		StartDate:       day(15, 8),
		EndDate:         day(15, 14),
		TripType:        TripRoundTrip,
		DriverAllowance: 2000,
		AdditionalCharges: []Charge{
			{Description: "parking", Amount: 500},
		},
	}

	cost, err := CalculateTotalCost(h, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 25000.0, cost, "allowance and charges are doubled too")
}
