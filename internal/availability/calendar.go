package availability

import (
	"context"
	"sort"
	"time"

	"github.com/alex-user-go/rateengine/internal/inventory"
)

// Calendar reads rate calendars from the upstream inventory.
type Calendar struct {
	inv inventory.Inventory
}

// NewCalendar creates a new Calendar.
func NewCalendar(inv inventory.Inventory) *Calendar {
	return &Calendar{inv: inv}
}

// ListDateRanges returns the date ranges covering windowDays days from from, ascending by start.
// windowDays is bounded to [1, years*365] to cap remote query cost.
func (c *Calendar) ListDateRanges(ctx context.Context, optionID string, from time.Time, windowDays int, rooms []RoomConfig, years int) ([]DateRange, error) {
	if windowDays < 1 {
		windowDays = 1
	}
	if years < 1 {
		years = DefaultExtendedBookingYears
	}
	if limit := years * daysPerYear; windowDays > limit {
		windowDays = limit
	}

	raw, err := c.inv.DateRanges(ctx, inventory.DateRangeQuery{
		OptionID: optionID,
		Date:     formatDate(from),
		Units:    windowDays,
		Rooms:    roomsToInventory(rooms),
	})
	if err != nil {
		return nil, err
	}

	ranges := make([]DateRange, 0, len(raw))
	for _, r := range raw {
		dr, err := dateRangeFromInventory(r)
		if err != nil {
			return nil, &inventory.Error{Op: "dateranges", Err: err}
		}
		ranges = append(ranges, dr)
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].Start.Equal(ranges[j].Start) {
			return ranges[i].End.Before(ranges[j].End)
		}
		return ranges[i].Start.Before(ranges[j].Start)
	})
	return ranges, nil
}

// covers reports whether ranges reach end (inclusive).
func covers(ranges []DateRange, end time.Time) bool {
	if len(ranges) == 0 {
		return false
	}
	return !ranges[len(ranges)-1].End.Before(end)
}

// closedWithin returns the closed ranges overlapping [start, end].
func closedWithin(ranges []DateRange, start, end time.Time) []DateRange {
	var closed []DateRange
	for _, r := range ranges {
		if r.Closed && r.Overlaps(start, end) {
			closed = append(closed, r)
		}
	}
	return closed
}

// minStayViolation returns the largest minimum stay among ranges overlapping [start, end]
// that units does not satisfy. Ranges outside the window do not bind.
func minStayViolation(ranges []DateRange, start, end time.Time, units int) (int, bool) {
	worst := 0
	for _, r := range ranges {
		if !r.Overlaps(start, end) {
			continue
		}
		if r.MinStay > units && r.MinStay > worst {
			worst = r.MinStay
		}
	}
	return worst, worst > 0
}

// maxStayViolation returns the smallest maximum stay among ranges overlapping [start, end]
// that units exceeds.
func maxStayViolation(ranges []DateRange, start, end time.Time, units int) (int, bool) {
	worst := 0
	for _, r := range ranges {
		if !r.Overlaps(start, end) || r.MaxStay <= 0 {
			continue
		}
		if units > r.MaxStay && (worst == 0 || r.MaxStay < worst) {
			worst = r.MaxStay
		}
	}
	return worst, worst > 0
}

// nearestRange returns the range closest to target, preferring the later range on ties.
func nearestRange(ranges []DateRange, target time.Time) (DateRange, bool) {
	var (
		best     DateRange
		bestDist = -1
	)
	for _, r := range ranges {
		dist := 0
		switch {
		case r.End.Before(target):
			dist = daysInclusive(r.End, target) - 1
		case r.Start.After(target):
			dist = daysInclusive(target, r.Start) - 1
		}
		if bestDist < 0 || dist < bestDist || (dist == bestDist && r.End.After(best.End)) {
			best, bestDist = r, dist
		}
	}
	return best, bestDist >= 0
}

// span merges the ranges overlapping [start, end] into one donor view:
// earliest start, latest end, largest minimum stay, closed if any segment is closed.
func span(ranges []DateRange, start, end time.Time) (DateRange, bool) {
	var (
		out   DateRange
		found bool
	)
	for _, r := range ranges {
		if !r.Overlaps(start, end) {
			continue
		}
		if !found {
			out, found = r, true
			continue
		}
		if r.Start.Before(out.Start) {
			out.Start = r.Start
		}
		if r.End.After(out.End) {
			out.End = r.End
		}
		if r.MinStay > out.MinStay {
			out.MinStay = r.MinStay
		}
		out.Closed = out.Closed || r.Closed
	}
	return out, found
}
