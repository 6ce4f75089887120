package dateshift

import (
	"math"
	"time"
)

// chargeLeadDays is how far the billing provider's charge runs ahead of
// delivery. The provider's billing cadence is always three days before the
// box goes out.
const chargeLeadDays = 3

// Result is the derived outcome of a weekday change. It has no independent
// lifecycle and is recomputed on every request.
type Result struct {
	// DeliveryDate is the next delivery under the new weekday variant,
	// strictly after the current delivery date.
	DeliveryDate time.Time

	// ChargeDate is the UTC date the provider should bill on: three calendar
	// days before DeliveryDate.
	ChargeDate time.Time

	// OrderDayOfWeek is the provider-convention weekday (Monday = 0) the
	// order is cut on, always three days before delivery.
	OrderDayOfWeek int
}

// Calculator computes date shifts against a fixed delivery timezone. The
// timezone pins date-only comparisons so results do not depend on the
// process timezone.
type Calculator struct {
	loc *time.Location
}

// NewCalculator constructs a Calculator operating in loc. A nil loc falls
// back to UTC.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{loc: loc}
}

// Compute derives the new delivery date, charge date, and provider order
// weekday for a subscription moving from currentVariant to newVariant.
//
// The shift keeps the subscriber's relative position in the delivery cycle:
// the distance from the next occurrence of the current weekday to the current
// delivery date is preserved, plus one full week so the recomputed date lands
// strictly ahead of the current delivery even when the raw delta is small or
// negative.
//
// Compute is pure: the same now always produces the same result. Both
// weekday variants must be canonical names; anything else returns
// ErrInvalidWeekday.
func (c *Calculator) Compute(
	now time.Time,
	currentDelivery time.Time,
	currentVariant, newVariant string,
) (Result, error) {
	currentWd, err := ParseWeekday(currentVariant)
	if err != nil {
		return Result{}, err
	}
	newWd, err := ParseWeekday(newVariant)
	if err != nil {
		return Result{}, err
	}

	nowLocal := now.In(c.loc)
	deliveryLocal := midnight(currentDelivery.In(c.loc))

	searchDate := NextWeekday(nowLocal, currentWd)
	deltaDays := absCeilDays(deliveryLocal.Sub(searchDate)) + 7

	deliveryDate := NextWeekday(nowLocal, newWd).AddDate(0, 0, deltaDays)

	// Charge date comparisons are date-only, so rebuild the delivery date at
	// midnight UTC before stepping back. This is the timezone normalization
	// step: without it the subtraction could cross a day boundary depending
	// on the zone offset.
	deliveryUTC := time.Date(
		deliveryDate.Year(), deliveryDate.Month(), deliveryDate.Day(),
		0, 0, 0, 0, time.UTC,
	)
	chargeDate := deliveryUTC.AddDate(0, 0, -chargeLeadDays)

	// The order is cut three days ahead of delivery, expressed in the
	// provider's Monday-based numbering.
	orderDay := ProviderWeekday(deliveryDate.AddDate(0, 0, -chargeLeadDays).Weekday())

	return Result{
		DeliveryDate:   deliveryDate,
		ChargeDate:     chargeDate,
		OrderDayOfWeek: orderDay,
	}, nil
}

// absCeilDays converts a duration between two midnight-aligned dates into a
// whole day count: ceiling first, then absolute value, so sign flips from the
// subtraction cannot shrink the delta.
func absCeilDays(d time.Duration) int {
	days := math.Ceil(d.Hours() / 24)
	return int(math.Abs(days))
}
