package availability

import (
	"testing"
	"time"
)

func d(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDecideDonor(t *testing.T) {
	window := deficit{
		Start:       d("2025-04-01"),
		RequiredEnd: d("2025-04-10"),
		From:        d("2025-04-06"),
		Days:        5,
	}

	tests := []struct {
		name        string
		years       int
		cand        *donorCandidate
		wantOutcome Outcome
		wantFetch   int
		wantStart   string
		wantMinStay int
	}{
		{
			name:        "no candidate",
			years:       2,
			wantOutcome: OutcomeDeficitNoDonor,
		},
		{
			name:  "usable donor",
			years: 2,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2025-03-01"), End: d("2025-04-05"), MinStay: 1},
				FetchStart: d("2025-04-01"),
				FetchUnits: 5,
			},
			wantOutcome: OutcomeDeficitWithDonor,
			wantFetch:   5,
		},
		{
			name:  "start beyond ceiling",
			years: 1,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2022-04-01"), End: d("2022-04-10")},
				FetchUnits: 5,
			},
			wantOutcome: OutcomeExtensionExceeded,
			wantFetch:   5,
		},
		{
			name:  "end beyond ceiling",
			years: 1,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2024-01-01"), End: d("2024-04-05")},
				FetchUnits: 5,
			},
			wantOutcome: OutcomeExtensionExceeded,
			wantFetch:   5,
		},
		{
			name:  "end exactly on ceiling",
			years: 1,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2024-01-01"), End: d("2024-04-10")},
				FetchUnits: 5,
			},
			wantOutcome: OutcomeDeficitWithDonor,
			wantFetch:   5,
		},
		{
			name:  "closed donor",
			years: 2,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2025-03-01"), End: d("2025-04-05"), Closed: true},
				FetchUnits: 5,
			},
			wantOutcome: OutcomeClosedPeriod,
			wantFetch:   5,
		},
		{
			name:  "minimum stay inflates fetch back from the donor end",
			years: 2,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2025-03-01"), End: d("2025-04-05"), MinStay: 7},
				FetchStart: d("2025-04-01"),
				FetchUnits: 5,
			},
			wantOutcome: OutcomeDeficitWithDonor,
			wantFetch:   7,
			wantStart:   "2025-03-30",
			wantMinStay: 7,
		},
		{
			name:  "inflated fetch does not start before the donor",
			years: 2,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2025-04-02"), End: d("2025-04-05"), MinStay: 7},
				FetchStart: d("2025-04-02"),
				FetchUnits: 4,
			},
			wantOutcome: OutcomeDeficitWithDonor,
			wantFetch:   7,
			wantStart:   "2025-04-02",
			wantMinStay: 7,
		},
		{
			name:  "last year fetch of the full request satisfies minimum stay",
			years: 2,
			cand: &donorCandidate{
				Range:      DateRange{Start: d("2024-04-01"), End: d("2024-04-10"), MinStay: 7},
				FetchStart: d("2024-04-01"),
				FetchUnits: 10,
				LastYear:   true,
			},
			wantOutcome: OutcomeDeficitWithDonor,
			wantFetch:   10,
			wantStart:   "2024-04-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decideDonor(window, tt.years, tt.cand)
			if got.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", got.Outcome, tt.wantOutcome)
			}
			if got.FetchUnits != tt.wantFetch {
				t.Errorf("FetchUnits = %d, want %d", got.FetchUnits, tt.wantFetch)
			}
			if tt.wantStart != "" && !got.FetchStart.Equal(d(tt.wantStart)) {
				t.Errorf("FetchStart = %s, want %s", got.FetchStart.Format(DateLayout), tt.wantStart)
			}
			if got.MinStayApplied != tt.wantMinStay {
				t.Errorf("MinStayApplied = %d, want %d", got.MinStayApplied, tt.wantMinStay)
			}
			if got.DeficitUnits != window.Days {
				t.Errorf("DeficitUnits = %d, want %d", got.DeficitUnits, window.Days)
			}
			if got.Outcome == OutcomeClosedPeriod && len(got.ClosedRanges) == 0 {
				t.Error("closed outcome without closed ranges")
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeCovered:           "covered",
		OutcomeDeficitWithDonor:  "deficit_with_donor",
		OutcomeDeficitNoDonor:    "deficit_no_donor",
		OutcomeClosedPeriod:      "closed_period",
		OutcomeExtensionExceeded: "extension_exceeded",
		Outcome(42):              "unknown",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}

func TestProvenanceMessage(t *testing.T) {
	tests := []struct {
		name   string
		dec    Decision
		markup float64
		want   string
	}{
		{
			name:   "last year with markup",
			dec:    Decision{DeficitUnits: 5, LastYear: true},
			markup: 10,
			want:   "Rates for 5 days of this stay are based on last year's rate with a 10% markup.",
		},
		{
			name: "last available without markup",
			dec:  Decision{DeficitUnits: 1},
			want: "Rates for 1 day of this stay are based on the last available rate.",
		},
		{
			name:   "minimum stay warning",
			dec:    Decision{DeficitUnits: 2, MinStayApplied: 3},
			markup: 12.5,
			want:   "Rates for 2 days of this stay are based on the last available rate with a 12.5% markup. The rate period used requires a minimum stay of 3 days; the price was prorated.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := provenanceMessage(tt.dec, tt.markup, "day"); got != tt.want {
				t.Errorf("provenanceMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
