package availability

import (
	"math"
	"strings"
)

// MapParams are the inputs to MapQuotesToRateLines.
type MapParams struct {
	// Quotes are the covered-portion quotes. They are never marked up.
	Quotes []StayQuote
	// Markup is the percentage applied to the donor-derived cost, already normalized.
	Markup float64
	// Donor holds quotes fetched from a donor period, if any.
	Donor []StayQuote
	// DonorUnits is the length the donor quotes were fetched for.
	DonorUnits int
	// DeficitUnits is the number of uncovered days the donor prices.
	DeficitUnits int
}

// MapQuotesToRateLines converts quotes into normalized rate lines.
//
// Without donor quotes every quote maps to one line. With donor quotes, each donor
// price is prorated from DonorUnits to DeficitUnits and marked up, then summed with
// the covered quote of the same rate ID. With no covered quotes the donor lines stand
// alone. Covered quotes without a matching donor line are dropped.
func MapQuotesToRateLines(p MapParams) []RateLine {
	if len(p.Donor) == 0 {
		lines := make([]RateLine, 0, len(p.Quotes))
		for _, q := range p.Quotes {
			lines = append(lines, rateLine(q, q.TotalPrice, q.AgentPrice, p.Markup))
		}
		return lines
	}

	donorTotal := func(d StayQuote) (int64, int64) {
		return donorPrice(d.TotalPrice, p), donorPrice(d.AgentPrice, p)
	}

	if len(p.Quotes) == 0 {
		lines := make([]RateLine, 0, len(p.Donor))
		for _, d := range p.Donor {
			total, agent := donorTotal(d)
			lines = append(lines, rateLine(d, total, agent, p.Markup))
		}
		return lines
	}

	byRate := make(map[string]StayQuote, len(p.Donor))
	for _, d := range p.Donor {
		if _, ok := byRate[d.RateID]; !ok {
			byRate[d.RateID] = d
		}
	}

	lines := make([]RateLine, 0, len(p.Quotes))
	for _, q := range p.Quotes {
		d, ok := byRate[q.RateID]
		if !ok {
			continue
		}
		total, agent := donorTotal(d)
		lines = append(lines, rateLine(q, q.TotalPrice+total, q.AgentPrice+agent, p.Markup))
	}
	return lines
}

// donorPrice prorates price from DonorUnits to DeficitUnits and applies markup, rounding once.
func donorPrice(price int64, p MapParams) int64 {
	v := float64(price)
	if p.DonorUnits > 0 && p.DeficitUnits > 0 && p.DonorUnits != p.DeficitUnits {
		v = v / float64(p.DonorUnits) * float64(p.DeficitUnits)
	}
	if p.Markup > 0 {
		v *= 1 + p.Markup/100
	}
	return int64(math.Round(v))
}

// Prorate returns round(price / fetched * deficit).
func Prorate(price int64, fetched, deficit int) int64 {
	return donorPrice(price, MapParams{DonorUnits: fetched, DeficitUnits: deficit})
}

func rateLine(q StayQuote, total, agent int64, markup float64) RateLine {
	rateID := q.RateID
	if markup > 0 {
		rateID = CustomRateID
	}
	return RateLine{
		RateID:            rateID,
		Currency:          q.Currency,
		TotalPrice:        total,
		AgentPrice:        agent,
		CurrencyPrecision: q.CurrencyPrecision,
		CancelHours:       q.CancelHours,
		CancelPolicies:    cancelPolicies(q),
		PickupPoints:      normalizePoints(q.External.PickupPoints),
		DropoffPoints:     normalizePoints(q.External.DropoffPoints),
		StartTimes:        startTimes(q.External.StartTimes),
	}
}

// cancelPolicies prefers the option-level policy in effect and falls back to the
// external descriptions only when the option has no policies at all.
func cancelPolicies(q StayQuote) []string {
	if len(q.CancelPolicies) == 0 {
		return append([]string{}, q.External.CancelPolicies...)
	}
	for _, cp := range q.CancelPolicies {
		if cp.InEffect {
			return []string{strings.TrimSpace(cp.Description)}
		}
	}
	return []string{}
}

func normalizePoints(in []Point) []Point {
	out := make([]Point, 0, len(in))
	for _, p := range in {
		if p.Time != "" {
			p.Time = clockTime(p.Time)
		}
		out = append(out, p)
	}
	return out
}

func startTimes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = clockTime(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
