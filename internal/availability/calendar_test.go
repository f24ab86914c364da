package availability

import (
	"context"
	"reflect"
	"testing"

	"github.com/alex-user-go/rateengine/internal/inventory"
)

type calendarStub struct {
	ranges []inventory.DateRange
	last   inventory.DateRangeQuery
}

func (c *calendarStub) Option(ctx context.Context, optionID string) (inventory.Option, error) {
	return inventory.Option{OptionID: optionID}, nil
}

func (c *calendarStub) DateRanges(ctx context.Context, q inventory.DateRangeQuery) ([]inventory.DateRange, error) {
	c.last = q
	return c.ranges, nil
}

func (c *calendarStub) Quotes(ctx context.Context, q inventory.QuoteQuery) ([]inventory.Quote, error) {
	return nil, nil
}

func TestCalendar_ListDateRanges(t *testing.T) {
	stub := &calendarStub{ranges: []inventory.DateRange{
		{StartDate: "2025-04-06", EndDate: "2025-04-10"},
		{StartDate: "2025-04-01", EndDate: "2025-04-05", Currency: " eur "},
	}}
	cal := NewCalendar(stub)

	first, err := cal.ListDateRanges(context.Background(), "OPT1", d("2025-04-01"), 10, nil, 2)
	if err != nil {
		t.Fatalf("ListDateRanges() error = %v", err)
	}
	if len(first) != 2 || !first[0].Start.Equal(d("2025-04-01")) || !first[1].Start.Equal(d("2025-04-06")) {
		t.Fatalf("ranges not sorted ascending: %+v", first)
	}
	if first[0].Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", first[0].Currency)
	}
	if stub.last.Date != "2025-04-01" || stub.last.Units != 10 {
		t.Errorf("query = %+v", stub.last)
	}

	second, err := cal.ListDateRanges(context.Background(), "OPT1", d("2025-04-01"), 10, nil, 2)
	if err != nil {
		t.Fatalf("ListDateRanges() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical queries returned different calendars")
	}
}

func TestCalendar_ListDateRanges_BoundsWindow(t *testing.T) {
	tests := []struct {
		name   string
		window int
		years  int
		want   int
	}{
		{"within bound", 30, 2, 30},
		{"capped at years", 5000, 2, 730},
		{"capped at one year", 400, 1, 365},
		{"invalid years use default", 1000, 0, 730},
		{"non-positive window", 0, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &calendarStub{}
			if _, err := NewCalendar(stub).ListDateRanges(context.Background(), "OPT1", d("2025-01-01"), tt.window, nil, tt.years); err != nil {
				t.Fatalf("ListDateRanges() error = %v", err)
			}
			if stub.last.Units != tt.want {
				t.Errorf("Units = %d, want %d", stub.last.Units, tt.want)
			}
		})
	}
}

func TestMinStayViolation(t *testing.T) {
	ranges := []DateRange{
		{Start: d("2025-04-01"), End: d("2025-04-05"), MinStay: 2},
		{Start: d("2025-04-06"), End: d("2025-04-20"), MinStay: 7},
	}

	tests := []struct {
		name    string
		start   string
		end     string
		units   int
		want    int
		wantBad bool
	}{
		{"satisfied inside first segment", "2025-04-01", "2025-04-03", 3, 0, false},
		{"segment outside stay does not bind", "2025-04-01", "2025-04-05", 5, 0, false},
		{"violated in first segment", "2025-04-02", "2025-04-02", 1, 2, true},
		{"largest overlapping minimum wins", "2025-04-04", "2025-04-08", 5, 7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bad := minStayViolation(ranges, d(tt.start), d(tt.end), tt.units)
			if got != tt.want || bad != tt.wantBad {
				t.Errorf("minStayViolation() = (%d, %v), want (%d, %v)", got, bad, tt.want, tt.wantBad)
			}
		})
	}
}

func TestNearestRange(t *testing.T) {
	ranges := []DateRange{
		{Start: d("2025-01-01"), End: d("2025-01-31")},
		{Start: d("2025-03-01"), End: d("2025-03-31")},
		{Start: d("2025-06-01"), End: d("2025-06-30")},
	}

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"inside a range", "2025-03-15", "2025-03-31"},
		{"closer to the earlier range", "2025-04-05", "2025-03-31"},
		{"closer to the later range", "2025-05-20", "2025-06-30"},
		{"tie prefers later range", "2025-05-01", "2025-06-30"},
		{"after everything", "2025-09-01", "2025-06-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nearestRange(ranges, d(tt.target))
			if !ok {
				t.Fatal("nearestRange() found nothing")
			}
			if formatDate(got.End) != tt.want {
				t.Errorf("nearestRange() end = %s, want %s", formatDate(got.End), tt.want)
			}
		})
	}

	if _, ok := nearestRange(nil, d("2025-01-01")); ok {
		t.Error("nearestRange(nil) reported a range")
	}
}

func TestDaysInclusive(t *testing.T) {
	tests := []struct {
		start, end string
		want       int
	}{
		{"2025-04-01", "2025-04-01", 1},
		{"2025-04-01", "2025-04-05", 5},
		{"2025-04-05", "2025-04-01", 0},
		{"2024-02-28", "2024-03-01", 3},
	}
	for _, tt := range tests {
		if got := daysInclusive(d(tt.start), d(tt.end)); got != tt.want {
			t.Errorf("daysInclusive(%s, %s) = %d, want %d", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2025-04-01T09:30:00+02:00", "09:30"},
		{"2025-04-01T21:05:00", "21:05"},
		{"14:45:00", "14:45"},
		{"7:15PM", "19:15"},
		{" 08:00 ", "08:00"},
		{"morning", "morning"},
	}
	for _, tt := range tests {
		if got := clockTime(tt.in); got != tt.want {
			t.Errorf("clockTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
