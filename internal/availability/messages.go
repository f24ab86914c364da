package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	msgNoRates      = "No rates are available for the requested dates."
	msgPartialRates = "Rates could not be priced for the full requested stay."
)

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// unitLabel returns the lower-cased charge unit, defaulting to day.
func unitLabel(opt OptionInfo) string {
	u := strings.ToLower(strings.TrimSpace(opt.ChargeUnit))
	u = strings.TrimSuffix(u, "s")
	if u == "" {
		return "day"
	}
	return u
}

func rangeList(ranges []DateRange) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		if r.Start.Equal(r.End) {
			parts = append(parts, formatDate(r.Start))
			continue
		}
		parts = append(parts, formatDate(r.Start)+" to "+formatDate(r.End))
	}
	return strings.Join(parts, ", ")
}

func closedMessage(ranges []DateRange) string {
	return "Rates are closed for " + rangeList(ranges) + "."
}

func minStayMessage(minStay int, unit string) string {
	return fmt.Sprintf("A minimum stay of %s is required for the requested dates.", plural(minStay, unit))
}

func maxStayMessage(maxStay int, unit string) string {
	return fmt.Sprintf("The maximum stay for the requested dates is %s.", plural(maxStay, unit))
}

func maxPaxMessage(room, limit int) string {
	return fmt.Sprintf("Room %d exceeds the maximum of %d passengers per charge unit.", room, limit)
}

func availableUntilMessage(last time.Time) string {
	return "Rates are only available until " + displayDate(last) + "."
}

func extensionMessage(donorEnd time.Time, years int) string {
	return fmt.Sprintf("Custom rates cannot be extended more than %s beyond the last rate period ending %s.",
		plural(years, "year"), formatDate(donorEnd))
}

func durationNotice(fixed, requested int, unit string) string {
	return fmt.Sprintf("This option has a fixed duration of %s; your request of %s was adjusted.",
		plural(fixed, unit), plural(requested, unit))
}

// provenanceMessage explains where a custom rate's deficit pricing came from.
func provenanceMessage(dec Decision, markup float64, unit string) string {
	var b strings.Builder
	b.WriteString("Rates for ")
	b.WriteString(plural(dec.DeficitUnits, unit))
	if dec.LastYear {
		b.WriteString(" of this stay are based on last year's rate")
	} else {
		b.WriteString(" of this stay are based on the last available rate")
	}
	if markup > 0 {
		b.WriteString(" with a ")
		b.WriteString(strconv.FormatFloat(markup, 'f', -1, 64))
		b.WriteString("% markup")
	}
	b.WriteString(".")
	if dec.MinStayApplied > 0 {
		fmt.Fprintf(&b, " The rate period used requires a minimum stay of %s; the price was prorated.",
			plural(dec.MinStayApplied, unit))
	}
	return b.String()
}

func joinMessages(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
