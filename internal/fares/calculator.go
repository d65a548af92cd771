package fares

import (
	"time"

	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/pkg/common"
	"github.com/richxcame/bus-booking/pkg/config"
)

// Default modifier rates used when no config is provided
const (
	defaultChildDiscount    = 0.50 // 50% off for children
	defaultSeniorDiscount   = 0.30 // 30% off for seniors
	defaultPeakSurcharge    = 0.20
	defaultWeekendSurcharge = 0.10
	defaultHolidaySurcharge = 0.25
)

// PassengerType classifies a passenger for discount purposes
type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerSenior PassengerType = "senior"
)

// Options carries the contextual modifiers for a single passenger fare.
// All temporal checks use UTC: peak and weekend classification is done on the
// departure timestamp's UTC clock, never server-local time.
type Options struct {
	PassengerType PassengerType
	DepartureAt   time.Time
	IsHoliday     bool
	RoundTrip     bool
	PromoPercent  float64 // flat percentage discount 0-100, applied last
}

// Calculator computes passenger fares from a route's base fare and
// contextual modifiers. It holds no persistence dependencies; callers pass
// the resolved route in.
type Calculator struct {
	childDiscount    float64
	seniorDiscount   float64
	peakSurcharge    float64
	weekendSurcharge float64
	holidaySurcharge float64
}

// NewCalculator creates a fare calculator, taking modifier rates from config
// where set and falling back to defaults.
func NewCalculator(cfg *config.BusinessConfig) *Calculator {
	c := &Calculator{
		childDiscount:    defaultChildDiscount,
		seniorDiscount:   defaultSeniorDiscount,
		peakSurcharge:    defaultPeakSurcharge,
		weekendSurcharge: defaultWeekendSurcharge,
		holidaySurcharge: defaultHolidaySurcharge,
	}
	if cfg != nil {
		if cfg.ChildDiscountRate > 0 {
			c.childDiscount = cfg.ChildDiscountRate
		}
		if cfg.SeniorDiscountRate > 0 {
			c.seniorDiscount = cfg.SeniorDiscountRate
		}
		if cfg.PeakSurchargeRate > 0 {
			c.peakSurcharge = cfg.PeakSurchargeRate
		}
		if cfg.WeekendSurchargeRate > 0 {
			c.weekendSurcharge = cfg.WeekendSurchargeRate
		}
		if cfg.HolidaySurchargeRate > 0 {
			c.holidaySurcharge = cfg.HolidaySurchargeRate
		}
	}
	return c
}

// IsPeakHour reports whether the UTC departure hour falls in the morning
// [7,9] or evening [16,19] peak window (inclusive).
func IsPeakHour(departure time.Time) bool {
	h := departure.UTC().Hour()
	return (h >= 7 && h <= 9) || (h >= 16 && h <= 19)
}

// IsWeekend reports whether the UTC departure day is Saturday or Sunday.
func IsWeekend(departure time.Time) bool {
	d := departure.UTC().Weekday()
	return d == time.Saturday || d == time.Sunday
}

// FarePerPassenger computes the fare for one passenger on the given route.
//
// Modifiers apply multiplicatively against the base fare in a fixed order:
// child/senior discount, peak surcharge, weekend surcharge, holiday
// surcharge. A round trip doubles the one-way total after all modifiers.
// The promo percentage is applied last, after doubling, and stacks with the
// passenger-type discount. The result is rounded half-up to 2 decimal places
// at the final step only.
func (c *Calculator) FarePerPassenger(route *fleet.Route, opts Options) (float64, error) {
	if route == nil {
		return 0, common.NewNotFoundError("route not found", nil)
	}

	fare := route.BaseFare

	switch opts.PassengerType {
	case PassengerChild:
		fare *= 1 - c.childDiscount
	case PassengerSenior:
		fare *= 1 - c.seniorDiscount
	}

	if IsPeakHour(opts.DepartureAt) {
		fare *= 1 + c.peakSurcharge
	}
	if IsWeekend(opts.DepartureAt) {
		fare *= 1 + c.weekendSurcharge
	}
	if opts.IsHoliday {
		fare *= 1 + c.holidaySurcharge
	}

	if opts.RoundTrip {
		fare *= 2
	}

	if opts.PromoPercent > 0 {
		fare *= 1 - opts.PromoPercent/100
	}

	return common.RoundMoney(fare), nil
}

// TotalFare computes the aggregate fare for a booking: the sum of
// per-passenger fares, each rounded once. There is no per-booking overhead,
// so N passengers with identical modifiers cost exactly N times one fare.
func (c *Calculator) TotalFare(route *fleet.Route, passengerTypes []PassengerType, opts Options) (float64, error) {
	var total float64
	for _, pt := range passengerTypes {
		perPassenger := opts
		perPassenger.PassengerType = pt
		fare, err := c.FarePerPassenger(route, perPassenger)
		if err != nil {
			return 0, err
		}
		total += fare
	}
	return common.RoundMoney(total), nil
}
