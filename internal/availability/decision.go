package availability

import "time"

// Outcome names the branch the engine takes for a request.
type Outcome int

const (
	// OutcomeCovered means the published calendar covers the whole stay.
	OutcomeCovered Outcome = iota
	// OutcomeDeficitWithDonor means uncovered days are priced from a donor period.
	OutcomeDeficitWithDonor
	// OutcomeDeficitNoDonor means uncovered days exist and no donor period was found.
	OutcomeDeficitNoDonor
	// OutcomeClosedPeriod means the stay or donor window overlaps a closed rate set.
	OutcomeClosedPeriod
	// OutcomeExtensionExceeded means the donor period is too old for the configured ceiling.
	OutcomeExtensionExceeded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCovered:
		return "covered"
	case OutcomeDeficitWithDonor:
		return "deficit_with_donor"
	case OutcomeDeficitNoDonor:
		return "deficit_no_donor"
	case OutcomeClosedPeriod:
		return "closed_period"
	case OutcomeExtensionExceeded:
		return "extension_exceeded"
	default:
		return "unknown"
	}
}

// donorCandidate is a donor period found for the uncovered days.
type donorCandidate struct {
	Range      DateRange
	Closed     []DateRange
	FetchStart time.Time
	FetchUnits int
	LastYear   bool
}

// deficit describes the uncovered part of a stay.
type deficit struct {
	Start       time.Time // requested start
	RequiredEnd time.Time // last requested day
	From        time.Time // first uncovered day
	Days        int
}

// Decision is the outcome of donor selection with everything needed to act on it.
type Decision struct {
	Outcome        Outcome
	Donor          DateRange
	ClosedRanges   []DateRange
	FetchStart     time.Time
	FetchUnits     int
	DeficitUnits   int
	MinStayApplied int
	LastYear       bool
	Years          int
}

// decideDonor applies the extension ceiling and donor validation to a candidate.
// The ceiling is checked against the unadjusted fetch window; minimum-stay inflation
// happens afterwards and is not re-checked.
func decideDonor(d deficit, years int, cand *donorCandidate) Decision {
	dec := Decision{DeficitUnits: d.Days, Years: years}
	if cand == nil {
		dec.Outcome = OutcomeDeficitNoDonor
		return dec
	}

	dec.Donor = cand.Range
	dec.FetchStart = cand.FetchStart
	dec.FetchUnits = cand.FetchUnits
	dec.LastYear = cand.LastYear

	limit := cand.Range.End.AddDate(years, 0, 0)
	if d.Start.After(limit) || d.RequiredEnd.After(limit) {
		dec.Outcome = OutcomeExtensionExceeded
		return dec
	}

	if cand.Range.Closed || len(cand.Closed) > 0 {
		dec.Outcome = OutcomeClosedPeriod
		dec.ClosedRanges = cand.Closed
		if len(dec.ClosedRanges) == 0 {
			dec.ClosedRanges = []DateRange{cand.Range}
		}
		return dec
	}

	if cand.Range.MinStay > dec.FetchUnits {
		dec.MinStayApplied = cand.Range.MinStay
		dec.FetchUnits = cand.Range.MinStay
		// Nearest-period fetches stay anchored to the donor's last published day.
		if !cand.LastYear {
			dec.FetchStart = maxDate(cand.Range.Start, addDays(cand.Range.End, -(dec.FetchUnits-1)))
		}
	}
	dec.Outcome = OutcomeDeficitWithDonor
	return dec
}
