package availability_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/alex-user-go/rateengine/internal/availability"
)

func TestProrate(t *testing.T) {
	tests := []struct {
		price   int64
		fetched int
		deficit int
	}{
		{1000, 10, 5},
		{999, 7, 3},
		{1, 3, 2},
		{12345, 14, 13},
		{500, 5, 5},
		{7, 9, 1},
	}
	for _, tt := range tests {
		got := availability.Prorate(tt.price, tt.fetched, tt.deficit)
		exact := float64(tt.price) / float64(tt.fetched) * float64(tt.deficit)
		if math.Abs(float64(got)-exact) > 1 {
			t.Errorf("Prorate(%d, %d, %d) = %d, want within 1 of %.3f", tt.price, tt.fetched, tt.deficit, got, exact)
		}
	}
}

func TestMapQuotesToRateLines(t *testing.T) {
	covered := availability.StayQuote{RateID: "R1", Currency: "EUR", TotalPrice: 400, AgentPrice: 300, CancelHours: 24}
	other := availability.StayQuote{RateID: "R2", Currency: "EUR", TotalPrice: 600, AgentPrice: 500}
	donor := availability.StayQuote{RateID: "R1", Currency: "EUR", TotalPrice: 1000, AgentPrice: 800, CancelHours: 72}

	tests := []struct {
		name      string
		params    availability.MapParams
		wantIDs   []string
		wantTotal []int64
		wantAgent []int64
	}{
		{
			name:      "plain quotes pass through",
			params:    availability.MapParams{Quotes: []availability.StayQuote{covered, other}},
			wantIDs:   []string{"R1", "R2"},
			wantTotal: []int64{400, 600},
			wantAgent: []int64{300, 500},
		},
		{
			name: "markup only applies to donor portion",
			params: availability.MapParams{
				Quotes:       []availability.StayQuote{covered},
				Markup:       10,
				Donor:        []availability.StayQuote{donor},
				DonorUnits:   10,
				DeficitUnits: 5,
			},
			wantIDs:   []string{availability.CustomRateID},
			wantTotal: []int64{400 + 550},
			wantAgent: []int64{300 + 440},
		},
		{
			name: "donor only without covered quotes",
			params: availability.MapParams{
				Donor:        []availability.StayQuote{donor},
				DonorUnits:   10,
				DeficitUnits: 3,
			},
			wantIDs:   []string{"R1"},
			wantTotal: []int64{300},
			wantAgent: []int64{240},
		},
		{
			name: "unmatched covered rates are dropped",
			params: availability.MapParams{
				Quotes:       []availability.StayQuote{covered, other},
				Donor:        []availability.StayQuote{donor},
				DonorUnits:   5,
				DeficitUnits: 5,
			},
			wantIDs:   []string{"R1"},
			wantTotal: []int64{1400},
			wantAgent: []int64{1100},
		},
		{
			name: "no matching rate ids",
			params: availability.MapParams{
				Quotes:       []availability.StayQuote{other},
				Donor:        []availability.StayQuote{donor},
				DonorUnits:   5,
				DeficitUnits: 5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := availability.MapQuotesToRateLines(tt.params)
			if len(lines) != len(tt.wantIDs) {
				t.Fatalf("got %d lines, want %d: %+v", len(lines), len(tt.wantIDs), lines)
			}
			for i, l := range lines {
				if l.RateID != tt.wantIDs[i] || l.TotalPrice != tt.wantTotal[i] || l.AgentPrice != tt.wantAgent[i] {
					t.Errorf("line[%d] = {%s %d %d}, want {%s %d %d}", i,
						l.RateID, l.TotalPrice, l.AgentPrice, tt.wantIDs[i], tt.wantTotal[i], tt.wantAgent[i])
				}
			}
		})
	}
}

func TestMapQuotesToRateLines_BlendedMetadataFromCoveredQuote(t *testing.T) {
	covered := availability.StayQuote{RateID: "R1", TotalPrice: 100, CancelHours: 24}
	donor := availability.StayQuote{RateID: "R1", TotalPrice: 100, CancelHours: 72}

	lines := availability.MapQuotesToRateLines(availability.MapParams{
		Quotes:       []availability.StayQuote{covered},
		Donor:        []availability.StayQuote{donor},
		DonorUnits:   1,
		DeficitUnits: 1,
	})
	if len(lines) != 1 || lines[0].CancelHours != 24 {
		t.Errorf("lines = %+v, want cancel hours from covered quote", lines)
	}
}

func TestMapQuotesToRateLines_CancelPolicies(t *testing.T) {
	tests := []struct {
		name  string
		quote availability.StayQuote
		want  []string
	}{
		{
			name: "policy in effect wins",
			quote: availability.StayQuote{
				CancelPolicies: []availability.CancelPolicy{
					{Description: "Full refund", InEffect: false},
					{Description: "50% penalty", PenaltyPercent: 50, InEffect: true},
				},
				External: availability.ExternalRateMetadata{CancelPolicies: []string{"External text"}},
			},
			want: []string{"50% penalty"},
		},
		{
			name: "no policy in effect",
			quote: availability.StayQuote{
				CancelPolicies: []availability.CancelPolicy{{Description: "Full refund"}},
				External:       availability.ExternalRateMetadata{CancelPolicies: []string{"External text"}},
			},
			want: []string{},
		},
		{
			name: "falls back to external descriptions",
			quote: availability.StayQuote{
				External: availability.ExternalRateMetadata{CancelPolicies: []string{"Non refundable", "Supplier terms apply"}},
			},
			want: []string{"Non refundable", "Supplier terms apply"},
		},
		{
			name:  "nothing at all",
			quote: availability.StayQuote{},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.quote.RateID = "R1"
			lines := availability.MapQuotesToRateLines(availability.MapParams{Quotes: []availability.StayQuote{tt.quote}})
			if !reflect.DeepEqual(lines[0].CancelPolicies, tt.want) {
				t.Errorf("CancelPolicies = %#v, want %#v", lines[0].CancelPolicies, tt.want)
			}
		})
	}
}

func TestMapQuotesToRateLines_ExternalMetadata(t *testing.T) {
	q := availability.StayQuote{
		RateID: "R1",
		External: availability.ExternalRateMetadata{
			PickupPoints:  []availability.Point{{Name: "Hotel lobby", Time: "2025-04-01T08:15:00+01:00"}},
			DropoffPoints: nil,
			StartTimes:    []string{"09:00:00", "2:30PM"},
		},
	}

	lines := availability.MapQuotesToRateLines(availability.MapParams{Quotes: []availability.StayQuote{q}})
	l := lines[0]

	if len(l.PickupPoints) != 1 || l.PickupPoints[0].Time != "08:15" {
		t.Errorf("PickupPoints = %+v", l.PickupPoints)
	}
	if l.DropoffPoints == nil || len(l.DropoffPoints) != 0 {
		t.Errorf("DropoffPoints = %#v, want empty slice", l.DropoffPoints)
	}
	if !reflect.DeepEqual(l.StartTimes, []string{"09:00", "14:30"}) {
		t.Errorf("StartTimes = %v", l.StartTimes)
	}
}
