package dateshift

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allWeekdays = []string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseWeekday(t *testing.T) {
	for i, name := range allWeekdays {
		wd, err := ParseWeekday(name)
		require.NoError(t, err)
		assert.Equal(t, time.Weekday(i), wd)
	}
}

func TestParseWeekdayInvalid(t *testing.T) {
	for _, name := range []string{"", "thursday", "THURSDAY", "Thur", "Someday"} {
		_, err := ParseWeekday(name)
		require.Error(t, err, "name %q", name)
		assert.ErrorIs(t, err, ErrInvalidWeekday)
	}
}

func TestNextWeekday(t *testing.T) {
	// Mon Sep 4 2023.
	from := date(2023, time.September, 4)

	tests := []struct {
		wd   time.Weekday
		want time.Time
	}{
		{time.Monday, date(2023, time.September, 4)}, // on/after includes today
		{time.Tuesday, date(2023, time.September, 5)},
		{time.Thursday, date(2023, time.September, 7)},
		{time.Sunday, date(2023, time.September, 10)},
	}
	for _, tt := range tests {
		got := NextWeekday(from, tt.wd)
		assert.Equal(t, tt.want, got, "weekday %v", tt.wd)
		assert.Equal(t, tt.wd, got.Weekday())
	}

	// Time of day must not push the result past today.
	lateMonday := from.Add(23 * time.Hour)
	assert.Equal(t, from, NextWeekday(lateMonday, time.Monday))
}

func TestProviderWeekday(t *testing.T) {
	assert.Equal(t, 0, ProviderWeekday(time.Monday))
	assert.Equal(t, 5, ProviderWeekday(time.Saturday))
	assert.Equal(t, 6, ProviderWeekday(time.Sunday))
}

// Fixed regression vector: current delivery Thu Sep 14 2023, moving
// Thursday -> Tuesday with now frozen at Mon Sep 4 2023.
func TestComputeRegressionVector(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2023, time.September, 4)
	currentDelivery := date(2023, time.September, 14)

	res, err := calc.Compute(now, currentDelivery, "Thursday", "Tuesday")
	require.NoError(t, err)

	// Next Thursday is Sep 7; ceil((Sep 14 - Sep 7)/1d) = 7; +7 = 14.
	// Next Tuesday is Sep 5; Sep 5 + 14d = Tue Sep 19.
	assert.Equal(t, date(2023, time.September, 19), res.DeliveryDate)
	assert.Equal(t, time.Tuesday, res.DeliveryDate.Weekday())

	// Charge lands three calendar days earlier, Sat Sep 16, in UTC.
	assert.Equal(t, date(2023, time.September, 16), res.ChargeDate)

	// Saturday in provider numbering (Monday = 0) is 5.
	assert.Equal(t, 5, res.OrderDayOfWeek)
}

func TestComputeAllWeekdayPairs(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2023, time.September, 4)
	currentDelivery := date(2023, time.September, 14)

	for _, current := range allWeekdays {
		for _, next := range allWeekdays {
			res, err := calc.Compute(now, currentDelivery, current, next)
			require.NoError(t, err, "%s -> %s", current, next)

			assert.True(t, res.DeliveryDate.After(currentDelivery),
				"%s -> %s: delivery %v not after %v", current, next, res.DeliveryDate, currentDelivery)
			assert.GreaterOrEqual(t, res.OrderDayOfWeek, 0, "%s -> %s", current, next)
			assert.LessOrEqual(t, res.OrderDayOfWeek, 6, "%s -> %s", current, next)

			// Charge date is always exactly three calendar days before delivery.
			wantCharge := time.Date(
				res.DeliveryDate.Year(), res.DeliveryDate.Month(), res.DeliveryDate.Day(),
				0, 0, 0, 0, time.UTC,
			).AddDate(0, 0, -3)
			assert.Equal(t, wantCharge, res.ChargeDate, "%s -> %s", current, next)

			// Order day is the provider weekday strictly before delivery.
			assert.Equal(t,
				ProviderWeekday(res.DeliveryDate.AddDate(0, 0, -3).Weekday()),
				res.OrderDayOfWeek, "%s -> %s", current, next)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2023, time.September, 4)
	currentDelivery := date(2023, time.September, 14)

	a, err := calc.Compute(now, currentDelivery, "Thursday", "Tuesday")
	require.NoError(t, err)
	b, err := calc.Compute(now, currentDelivery, "Thursday", "Tuesday")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeStaleCurrentDelivery(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2023, time.September, 4)
	// Delivery date already in the past: the +7 guard still lands the new
	// date in the future.
	currentDelivery := date(2023, time.August, 24)

	res, err := calc.Compute(now, currentDelivery, "Thursday", "Friday")
	require.NoError(t, err)
	assert.True(t, res.DeliveryDate.After(currentDelivery))
	assert.True(t, res.DeliveryDate.After(now))
	assert.Equal(t, time.Friday, res.DeliveryDate.Weekday())
}

func TestComputeRespectsTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	calc := NewCalculator(loc)

	// 13:00 UTC on Mon Sep 4 is already Tue Sep 5 in Auckland.
	now := time.Date(2023, time.September, 4, 13, 0, 0, 0, time.UTC)
	currentDelivery := time.Date(2023, time.September, 14, 0, 0, 0, 0, loc)

	res, err := calc.Compute(now, currentDelivery, "Thursday", "Tuesday")
	require.NoError(t, err)

	// Next Tuesday in Auckland is Sep 5 (today), not Sep 12.
	assert.Equal(t, time.Tuesday, res.DeliveryDate.Weekday())
	assert.Equal(t, 19, res.DeliveryDate.Day())
	assert.Equal(t, loc.String(), res.DeliveryDate.Location().String())

	// Charge date is pinned to UTC regardless of the calendar zone.
	assert.Equal(t, time.UTC, res.ChargeDate.Location())
	assert.Equal(t, 16, res.ChargeDate.Day())
}

func TestComputeInvalidVariant(t *testing.T) {
	calc := NewCalculator(time.UTC)
	now := date(2023, time.September, 4)
	currentDelivery := date(2023, time.September, 14)

	_, err := calc.Compute(now, currentDelivery, "Thorsday", "Tuesday")
	assert.True(t, errors.Is(err, ErrInvalidWeekday))

	_, err = calc.Compute(now, currentDelivery, "Thursday", "tuesday")
	assert.True(t, errors.Is(err, ErrInvalidWeekday))
}
