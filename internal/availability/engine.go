package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alex-user-go/rateengine/internal/inventory"
	"github.com/alex-user-go/rateengine/internal/obs"
)

// ValidationError reports a request rejected before any quote is fetched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Engine resolves bookability and pricing for option requests.
type Engine struct {
	inv      inventory.Inventory
	calendar *Calendar
	quotes   *Quotes
	metrics  *obs.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to anchor donor searches.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new Engine.
func NewEngine(inv inventory.Inventory, metrics *obs.Metrics, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		inv:      inv,
		calendar: NewCalendar(inv),
		quotes:   NewQuotes(inv),
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// stay is a validated request threaded through one resolution.
type stay struct {
	req    Request
	opt    OptionInfo
	rooms  []RoomConfig
	units  int
	start  time.Time
	end    time.Time
	notice string
	unit   string
}

// ResolveAvailability decides whether req is bookable and prices it.
// Only upstream failures are returned as errors; every other condition is a result.
func (e *Engine) ResolveAvailability(ctx context.Context, req Request, cfg CustomRateConfig) (BookabilityResult, error) {
	e.metrics.IncRequests()
	start := time.Now()

	res, err := e.resolve(ctx, req, cfg)
	if err != nil {
		e.metrics.IncUpstreamErrors()
		e.logger.Error("availability resolution failed",
			"option_id", req.OptionID,
			"error", err)
		return BookabilityResult{}, err
	}
	if !res.Bookable {
		e.metrics.IncNotBookable()
	}

	e.logger.Info("availability resolved",
		"option_id", req.OptionID,
		"start_date", formatDate(req.StartDate),
		"duration", req.Duration,
		"bookable", res.Bookable,
		"rates", len(res.Rates),
		"duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

// DisplayRates prices req for an exact window without a bookability decision.
func (e *Engine) DisplayRates(ctx context.Context, req Request) ([]RateLine, error) {
	s, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	quotes, err := e.quotes.FetchStayQuotes(ctx, req.OptionID, s.start, s.units, s.rooms, req.DisplaySupplierCurrency)
	if err != nil {
		return nil, upstreamError("quotes", err)
	}
	return MapQuotesToRateLines(MapParams{Quotes: quotes}), nil
}

func (e *Engine) resolve(ctx context.Context, req Request, cfg CustomRateConfig) (BookabilityResult, error) {
	s, err := e.prepare(ctx, req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return notBookable(verr.Reason), nil
		}
		return BookabilityResult{}, err
	}

	ranges, err := e.calendar.ListDateRanges(ctx, req.OptionID, s.start, s.units, s.rooms, cfg.Years())
	if err != nil {
		return BookabilityResult{}, upstreamError("dateranges", err)
	}

	if covers(ranges, s.end) {
		e.logger.Debug("calendar covers stay", "option_id", req.OptionID, "outcome", OutcomeCovered.String())
		return e.strict(ctx, s, ranges)
	}
	if !cfg.Enabled {
		return e.unavailable(ctx, s, ranges, cfg.Years())
	}
	return e.custom(ctx, s, ranges, cfg)
}

// prepare loads option metadata, applies duration rules and validates rooms.
func (e *Engine) prepare(ctx context.Context, req Request) (stay, error) {
	raw, err := e.inv.Option(ctx, req.OptionID)
	if err != nil {
		return stay{}, upstreamError("option", err)
	}
	opt := optionFromInventory(raw)

	s := stay{
		req:   req,
		opt:   opt,
		units: max(req.Duration, 1),
		start: day(req.StartDate),
		unit:  unitLabel(opt),
	}
	if opt.FixedDuration > 0 && opt.FixedDuration != s.units {
		s.notice = durationNotice(opt.FixedDuration, s.units, s.unit)
		s.units = opt.FixedDuration
	}
	s.end = endOfStay(s.start, s.units)

	rooms, err := NormalizePax(req.Rooms, opt)
	if err != nil {
		return stay{}, &ValidationError{Reason: "Invalid passenger configuration: " + err.Error() + "."}
	}
	if room, over := exceedsMaxPax(rooms, opt.MaxPaxPerCharge); over {
		return stay{}, &ValidationError{Reason: maxPaxMessage(room, opt.MaxPaxPerCharge)}
	}
	s.rooms = rooms
	return s, nil
}

func (e *Engine) strict(ctx context.Context, s stay, ranges []DateRange) (BookabilityResult, error) {
	if closed := closedWithin(ranges, s.start, s.end); len(closed) > 0 {
		return notBookable(closedMessage(closed)), nil
	}
	if minStay, bad := minStayViolation(ranges, s.start, s.end, s.units); bad {
		return notBookable(minStayMessage(minStay, s.unit)), nil
	}
	if maxStay, bad := maxStayViolation(ranges, s.start, s.end, s.units); bad {
		return notBookable(maxStayMessage(maxStay, s.unit)), nil
	}

	quotes, err := e.quotes.FetchStayQuotes(ctx, s.req.OptionID, s.start, s.units, s.rooms, s.req.DisplaySupplierCurrency)
	if err != nil {
		return BookabilityResult{}, upstreamError("quotes", err)
	}
	if len(quotes) == 0 {
		return notBookable(msgNoRates), nil
	}

	e.metrics.IncStrictPath()
	return BookabilityResult{
		Bookable: true,
		Type:     ResultType,
		EndDate:  formatDate(s.end),
		Message:  s.notice,
		Rates:    MapQuotesToRateLines(MapParams{Quotes: quotes}),
	}, nil
}

// unavailable reports how far rates reach when no custom rate can be made.
func (e *Engine) unavailable(ctx context.Context, s stay, ranges []DateRange, years int) (BookabilityResult, error) {
	if len(ranges) > 0 {
		return availableUntil(ranges[len(ranges)-1].End), nil
	}
	r, ok, err := e.nearest(ctx, s, s.start, years)
	if err != nil {
		return BookabilityResult{}, err
	}
	if !ok {
		return notBookable(msgNoRates), nil
	}
	return availableUntil(r.End), nil
}

func (e *Engine) custom(ctx context.Context, s stay, ranges []DateRange, cfg CustomRateConfig) (BookabilityResult, error) {
	coveredDays := 0
	if len(ranges) > 0 {
		coveredDays = daysInclusive(s.start, ranges[len(ranges)-1].End)
	}

	def := deficit{Start: s.start, RequiredEnd: s.end, From: s.start}
	var covered []StayQuote
	if coveredDays > 0 {
		coveredEnd := endOfStay(s.start, coveredDays)
		if closed := closedWithin(ranges, s.start, coveredEnd); len(closed) > 0 {
			return notBookable(closedMessage(closed)), nil
		}
		var err error
		covered, err = e.quotes.FetchStayQuotes(ctx, s.req.OptionID, s.start, coveredDays, s.rooms, s.req.DisplaySupplierCurrency)
		if err != nil {
			return BookabilityResult{}, upstreamError("quotes", err)
		}
		def.From = addDays(coveredEnd, 1)
	}
	def.Days = daysInclusive(def.From, s.end)

	cand, err := e.findDonor(ctx, s, def, cfg)
	if err != nil {
		return BookabilityResult{}, err
	}
	dec := decideDonor(def, cfg.Years(), cand)
	e.logger.Debug("donor decision",
		"option_id", s.req.OptionID,
		"outcome", dec.Outcome.String(),
		"covered_days", coveredDays,
		"deficit_days", def.Days,
		"fetch_units", dec.FetchUnits)

	switch dec.Outcome {
	case OutcomeDeficitNoDonor:
		return e.unavailable(ctx, s, ranges, cfg.Years())
	case OutcomeExtensionExceeded:
		return notBookable(extensionMessage(dec.Donor.End, dec.Years)), nil
	case OutcomeClosedPeriod:
		return notBookable(closedMessage(dec.ClosedRanges)), nil
	}

	donor, err := e.quotes.FetchStayQuotes(ctx, s.req.OptionID, dec.FetchStart, dec.FetchUnits, s.rooms, s.req.DisplaySupplierCurrency)
	if err != nil {
		return BookabilityResult{}, upstreamError("quotes", err)
	}
	switch {
	case len(donor) == 0 && len(covered) == 0:
		return notBookable(msgNoRates), nil
	case len(donor) == 0, coveredDays > 0 && len(covered) == 0:
		return notBookable(msgPartialRates), nil
	}

	markup := cfg.Markup()
	lines := MapQuotesToRateLines(MapParams{
		Quotes:       covered,
		Markup:       markup,
		Donor:        donor,
		DonorUnits:   dec.FetchUnits,
		DeficitUnits: dec.DeficitUnits,
	})
	if len(lines) == 0 {
		return notBookable(msgPartialRates), nil
	}

	e.metrics.IncCustomRates()
	return BookabilityResult{
		Bookable: true,
		Type:     ResultType,
		EndDate:  formatDate(s.end),
		Message:  joinMessages(s.notice, provenanceMessage(dec, markup, s.unit)),
		Rates:    lines,
	}, nil
}

// findDonor selects the period whose rates price the uncovered days.
func (e *Engine) findDonor(ctx context.Context, s stay, def deficit, cfg CustomRateConfig) (*donorCandidate, error) {
	years := cfg.Years()
	if cfg.UseLastYearRate {
		from, to := s.start.AddDate(-1, 0, 0), s.end.AddDate(-1, 0, 0)
		ranges, err := e.calendar.ListDateRanges(ctx, s.req.OptionID, from, s.units, s.rooms, years)
		if err != nil {
			return nil, upstreamError("dateranges", err)
		}
		r, ok := span(ranges, from, to)
		if !ok {
			return nil, nil
		}
		return &donorCandidate{
			Range:      r,
			Closed:     closedWithin(ranges, from, to),
			FetchStart: from,
			FetchUnits: s.units,
			LastYear:   true,
		}, nil
	}

	r, ok, err := e.nearest(ctx, s, def.From, years)
	if err != nil || !ok {
		return nil, err
	}
	return &donorCandidate{
		Range:      r,
		FetchStart: maxDate(r.Start, addDays(r.End, -(def.Days-1))),
		FetchUnits: def.Days,
	}, nil
}

// nearest searches forward from today for the range closest to target, then the past year.
func (e *Engine) nearest(ctx context.Context, s stay, target time.Time, years int) (DateRange, bool, error) {
	today := day(e.now())

	ranges, err := e.calendar.ListDateRanges(ctx, s.req.OptionID, today, years*daysPerYear, s.rooms, years)
	if err != nil {
		return DateRange{}, false, upstreamError("dateranges", err)
	}
	if r, ok := nearestRange(ranges, target); ok {
		return r, true, nil
	}

	past, err := e.calendar.ListDateRanges(ctx, s.req.OptionID, addDays(today, -daysPerYear), daysPerYear, s.rooms, years)
	if err != nil {
		return DateRange{}, false, upstreamError("dateranges", err)
	}
	r, ok := nearestRange(past, target)
	return r, ok, nil
}

func notBookable(msg string) BookabilityResult {
	return BookabilityResult{
		Type:    ResultType,
		Message: msg,
		Rates:   []RateLine{},
	}
}

func availableUntil(last time.Time) BookabilityResult {
	res := notBookable(availableUntilMessage(last))
	res.EndDate = formatDate(last)
	return res
}

// upstreamError makes sure any failure escaping the engine is an inventory error.
func upstreamError(op string, err error) error {
	if errors.Is(err, inventory.ErrUpstream) {
		return err
	}
	return &inventory.Error{Op: op, Err: err}
}
