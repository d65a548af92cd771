package fares

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/pkg/common"
)

// Tuesday 2025-03-11 12:00 UTC: not peak, not weekend.
var quietTuesday = time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)

func testRoute(baseFare float64) *fleet.Route {
	return &fleet.Route{BaseFare: baseFare, Source: "Lagos", Destination: "Abuja"}
}

func TestFarePerPassenger_BaseFare(t *testing.T) {
	calc := NewCalculator(nil)

	fare, err := calc.FarePerPassenger(testRoute(1000), Options{
		PassengerType: PassengerAdult,
		DepartureAt:   quietTuesday,
	})

	require.NoError(t, err)
	assert.Equal(t, 1000.0, fare)
}

func TestFarePerPassenger_PassengerTypeDiscounts(t *testing.T) {
	calc := NewCalculator(nil)

	tests := []struct {
		name     string
		ptype    PassengerType
		expected float64
	}{
		{"adult pays full fare", PassengerAdult, 1000},
		{"child gets 50% off", PassengerChild, 500},
		{"senior gets 30% off", PassengerSenior, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fare, err := calc.FarePerPassenger(testRoute(1000), Options{
				PassengerType: tt.ptype,
				DepartureAt:   quietTuesday,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fare)
		})
	}
}

func TestIsPeakHour_Boundaries(t *testing.T) {
	tests := []struct {
		hour int
		peak bool
	}{
		{6, false},
		{7, true},
		{8, true},
		{9, true},
		{10, false},
		{15, false},
		{16, true},
		{19, true},
		{20, false},
	}

	for _, tt := range tests {
		departure := time.Date(2025, 3, 11, tt.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, tt.peak, IsPeakHour(departure), "hour %d", tt.hour)
	}
}

func TestFarePerPassenger_PeakAndWeekendSurcharges(t *testing.T) {
	calc := NewCalculator(nil)

	// Tuesday 08:00 UTC: peak only
	peakDeparture := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	fare, err := calc.FarePerPassenger(testRoute(1000), Options{
		PassengerType: PassengerAdult,
		DepartureAt:   peakDeparture,
	})
	require.NoError(t, err)
	assert.Equal(t, 1200.0, fare)

	// Saturday 12:00 UTC: weekend only
	weekendDeparture := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	fare, err = calc.FarePerPassenger(testRoute(1000), Options{
		PassengerType: PassengerAdult,
		DepartureAt:   weekendDeparture,
	})
	require.NoError(t, err)
	assert.Equal(t, 1100.0, fare)
}

func TestFarePerPassenger_ModifiersStackInOrder(t *testing.T) {
	calc := NewCalculator(nil)

	// Saturday 08:00 UTC on a holiday for a child:
	// 1000 * 0.5 (child) * 1.2 (peak) * 1.1 (weekend) * 1.25 (holiday) = 825
	departure := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	fare, err := calc.FarePerPassenger(testRoute(1000), Options{
		PassengerType: PassengerChild,
		DepartureAt:   departure,
		IsHoliday:     true,
	})

	require.NoError(t, err)
	assert.Equal(t, 825.0, fare)
}

func TestFarePerPassenger_RoundTripExactlyDoubles(t *testing.T) {
	calc := NewCalculator(nil)
	departure := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)

	for _, ptype := range []PassengerType{PassengerAdult, PassengerChild, PassengerSenior} {
		oneWay, err := calc.FarePerPassenger(testRoute(1250), Options{
			PassengerType: ptype,
			DepartureAt:   departure,
			IsHoliday:     true,
		})
		require.NoError(t, err)

		roundTrip, err := calc.FarePerPassenger(testRoute(1250), Options{
			PassengerType: ptype,
			DepartureAt:   departure,
			IsHoliday:     true,
			RoundTrip:     true,
		})
		require.NoError(t, err)

		assert.Equal(t, 2*oneWay, roundTrip, "passenger type %s", ptype)
	}
}

func TestFarePerPassenger_PromoAppliedAfterDoubling(t *testing.T) {
	calc := NewCalculator(nil)

	// 1000 one-way, doubled to 2000, then 10% promo: 1800
	fare, err := calc.FarePerPassenger(testRoute(1000), Options{
		PassengerType: PassengerAdult,
		DepartureAt:   quietTuesday,
		RoundTrip:     true,
		PromoPercent:  10,
	})

	require.NoError(t, err)
	assert.Equal(t, 1800.0, fare)
}

func TestFarePerPassenger_PromoStacksWithDiscount(t *testing.T) {
	calc := NewCalculator(nil)

	// 1000 * 0.5 (child) = 500, then 10% promo: 450
	fare, err := calc.FarePerPassenger(testRoute(1000), Options{
		PassengerType: PassengerChild,
		DepartureAt:   quietTuesday,
		PromoPercent:  10,
	})

	require.NoError(t, err)
	assert.Equal(t, 450.0, fare)
}

func TestFarePerPassenger_RoundsHalfUpAtFinalStep(t *testing.T) {
	calc := NewCalculator(nil)

	// 333.33 * 0.5 = 166.665, half-up to 166.67
	fare, err := calc.FarePerPassenger(testRoute(333.33), Options{
		PassengerType: PassengerChild,
		DepartureAt:   quietTuesday,
	})

	require.NoError(t, err)
	assert.Equal(t, 166.67, fare)
}

func TestFarePerPassenger_MissingRoute(t *testing.T) {
	calc := NewCalculator(nil)

	_, err := calc.FarePerPassenger(nil, Options{DepartureAt: quietTuesday})

	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeNotFound))
}

func TestTotalFare_Monotonicity(t *testing.T) {
	calc := NewCalculator(nil)
	route := testRoute(1234.56)
	opts := Options{DepartureAt: quietTuesday}

	single, err := calc.TotalFare(route, []PassengerType{PassengerAdult}, opts)
	require.NoError(t, err)

	for n := 2; n <= 5; n++ {
		types := make([]PassengerType, n)
		for i := range types {
			types[i] = PassengerAdult
		}
		total, err := calc.TotalFare(route, types, opts)
		require.NoError(t, err)
		assert.Equal(t, common.RoundMoney(float64(n)*single), total, "%d passengers", n)
	}
}

func TestTotalFare_MixedPassengerTypes(t *testing.T) {
	calc := NewCalculator(nil)
	route := testRoute(1000)
	opts := Options{DepartureAt: quietTuesday}

	// adult 1000 + child 500 + senior 700
	total, err := calc.TotalFare(route, []PassengerType{PassengerAdult, PassengerChild, PassengerSenior}, opts)

	require.NoError(t, err)
	assert.Equal(t, 2200.0, total)
}
