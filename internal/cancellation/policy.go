package cancellation

import (
	"time"

	"github.com/richxcame/bus-booking/pkg/common"
)

// Policy names a refund-percentage schedule for hiring cancellations
type Policy string

const (
	PolicyStandard Policy = "standard"
	PolicyFlexible Policy = "flexible"
	PolicyStrict   Policy = "strict"
)

// Valid reports whether the policy name is one of the known schedules
func (p Policy) Valid() bool {
	switch p {
	case PolicyStandard, PolicyFlexible, PolicyStrict:
		return true
	}
	return false
}

// adminLateCancelPercent is the flat refund rate an admin override grants for
// booking cancellations inside the 24 hour cutoff
const adminLateCancelPercent = 50.0

// Quote is the outcome of evaluating a cancellation against a refund schedule
type Quote struct {
	RefundPercentage float64 `json:"refund_percentage"`
	RefundAmount     float64 `json:"refund_amount"`
	AdminOverride    bool    `json:"admin_override,omitempty"`
}

// BookingRefundPercent maps hours remaining before departure to a refund
// percentage. Tier boundaries are strictly greater-than: a cancellation at
// exactly 72 hours falls into the >48h tier and yields 75, not 100.
func BookingRefundPercent(hoursToDeparture float64) float64 {
	switch {
	case hoursToDeparture > 72:
		return 100
	case hoursToDeparture > 48:
		return 75
	case hoursToDeparture > 24:
		return 50
	case hoursToDeparture > 12:
		return 25
	default:
		return 0
	}
}

// HiringRefundPercent maps days remaining before the hire start to a refund
// percentage under the named policy. Boundaries are strictly greater-than.
func HiringRefundPercent(policy Policy, daysToStart float64) (float64, error) {
	switch policy {
	case PolicyStandard:
		switch {
		case daysToStart > 14:
			return 90, nil
		case daysToStart > 7:
			return 75, nil
		case daysToStart > 3:
			return 50, nil
		case daysToStart > 1:
			return 25, nil
		default:
			return 0, nil
		}
	case PolicyFlexible:
		switch {
		case daysToStart > 7:
			return 100, nil
		case daysToStart > 3:
			return 80, nil
		case daysToStart > 1:
			return 50, nil
		default:
			return 0, nil
		}
	case PolicyStrict:
		switch {
		case daysToStart > 30:
			return 75, nil
		case daysToStart > 14:
			return 50, nil
		case daysToStart > 7:
			return 25, nil
		default:
			return 0, nil
		}
	default:
		return 0, common.NewBadRequestError("unknown cancellation policy: "+string(policy), nil)
	}
}

// QuoteBookingRefund computes the refund for cancelling a booking at the
// given moment. Cancellations inside 24 hours of departure are rejected for
// regular users; an admin proceeds at a flat 50 percent instead of the tier
// the remaining hours would otherwise select.
func QuoteBookingRefund(departureAt, now time.Time, totalPaid float64, isAdmin bool) (Quote, error) {
	hours := departureAt.UTC().Sub(now.UTC()).Hours()

	if hours <= 24 {
		if !isAdmin {
			return Quote{}, common.NewUnprocessableError(common.CodeTooLateToCancel,
				"bookings cannot be cancelled within 24 hours of departure")
		}
		return Quote{
			RefundPercentage: adminLateCancelPercent,
			RefundAmount:     common.RoundMoney(totalPaid * adminLateCancelPercent / 100),
			AdminOverride:    true,
		}, nil
	}

	pct := BookingRefundPercent(hours)
	return Quote{
		RefundPercentage: pct,
		RefundAmount:     common.RoundMoney(totalPaid * pct / 100),
	}, nil
}

// QuoteHiringRefund computes the refund for cancelling a hiring at the given
// moment under the named policy
func QuoteHiringRefund(policy Policy, startDate, now time.Time, totalPaid float64) (Quote, error) {
	days := startDate.UTC().Sub(now.UTC()).Hours() / 24

	pct, err := HiringRefundPercent(policy, days)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		RefundPercentage: pct,
		RefundAmount:     common.RoundMoney(totalPaid * pct / 100),
	}, nil
}
