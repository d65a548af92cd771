package hiring

import (
	"math"

	"github.com/richxcame/bus-booking/internal/fleet"
	"github.com/richxcame/bus-booking/pkg/common"
)

// standardWorkdayHours is the driver's allotted hours per chargeable day.
// Duration beyond ceil(days) * this triggers overtime when a rate is set.
const standardWorkdayHours = 8.0

// CalculateTotalCost computes the full hire cost for a hiring contract.
// Route and bus are explicit inputs, required only for route-based pricing;
// the calculator never resolves them itself.
//
// The base amount comes from the rate type. Partial days and hours always
// round up. Route-based pricing charges the whole bus as the sum of all
// seats' single-trip fares scaled by the multiplier, and duration is
// deliberately not a factor. On top of the base: the driver allowance once,
// overtime for hours beyond the standard allotment, and each additional
// charge. A round trip doubles the accumulated total last. The result is
// rounded half-up to 2 decimals at the very end.
func CalculateTotalCost(h *Hiring, route *fleet.Route, bus *fleet.Bus) (float64, error) {
	durationHours := h.EndDate.Sub(h.StartDate).Hours()
	durationDays := durationHours / 24

	var total float64
	switch h.RateType {
	case RatePerDay:
		total = h.BaseRate * math.Ceil(durationDays)
	case RatePerHour:
		total = h.BaseRate * math.Ceil(durationHours)
	case RatePerKilometer:
		if h.EstimatedDistance <= 0 {
			return 0, common.NewBadRequestError("per-kilometer pricing requires a positive estimated distance", nil)
		}
		total = h.BaseRate * h.EstimatedDistance
	case RateFixed:
		total = h.BaseRate
	case RateRouteBased:
		if h.RouteID == nil {
			return 0, common.NewBadRequestError("route-based pricing requires a linked route", nil)
		}
		if route == nil || bus == nil {
			return 0, common.NewNotFoundError("route or bus not found for route-based pricing", nil)
		}
		rate := h.BaseRate
		if rate <= 0 {
			rate = route.BaseFare
		}
		multiplier := h.RoutePriceMultiplier
		if multiplier < 1 {
			multiplier = 1
		}
		total = rate * float64(bus.Capacity) * multiplier
	default:
		return 0, common.NewBadRequestError("unknown rate type: "+string(h.RateType), nil)
	}

	total += h.DriverAllowance

	allottedHours := math.Ceil(durationDays) * standardWorkdayHours
	if durationHours > allottedHours && h.OvertimeRate > 0 {
		total += (durationHours - allottedHours) * h.OvertimeRate
	}

	for _, charge := range h.AdditionalCharges {
		total += charge.Amount
	}

	if h.TripType == TripRoundTrip {
		total *= 2
	}

	return common.RoundMoney(total), nil
}
