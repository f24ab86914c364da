package main

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alex-user-go/rateengine/internal/availability"
	"github.com/alex-user-go/rateengine/internal/inventory"
)

// upstreamConfig tunes the simulated inventory system.
type upstreamConfig struct {
	Now         time.Time
	AgentID     string
	Password    string
	FailureRate float64
	MinLatency  time.Duration
	MaxLatency  time.Duration
}

// period is one season of the simulated rate calendar.
type period struct {
	start, end time.Time
	code       string
	name       string
	minStay    int
	maxStay    int
	closed     bool
	multiplier float64
}

// Base nightly prices per room type, in cents.
var roomPrices = map[string]int64{
	"SG": 9000,
	"TW": 12000,
	"DB": 12000,
	"TR": 15000,
}

// Season multipliers by calendar quarter.
var seasons = [4]struct {
	code       string
	name       string
	multiplier float64
	minStay    int
}{
	{"PEAK", "Summer peak", 1.3, 3},
	{"SHLD", "Autumn shoulder", 1.0, 1},
	{"LOW", "Winter", 0.9, 1},
	{"SPRG", "Spring", 1.1, 2},
}

const (
	currency     = "AUD"
	agentRatio   = 0.8
	convertRatio = 0.65
	maxStay      = 28
)

// upstream simulates the inventory system the engine queries.
type upstream struct {
	cfg     upstreamConfig
	options map[string]inventory.Option
	periods []period
	logger  *slog.Logger
}

func newUpstream(cfg upstreamConfig, logger *slog.Logger) *upstream {
	return &upstream{
		cfg:     cfg,
		options: catalog(),
		periods: calendar(cfg.Now),
		logger:  logger,
	}
}

func catalog() map[string]inventory.Option {
	return map[string]inventory.Option{
		"HTLSYD001": {
			OptionID:                "HTLSYD001",
			ChargeUnit:              "Nights",
			MaxPaxPerCharge:         3,
			ChildrenAllowed:         true,
			ChildrenCountInPaxBreak: true,
			InfantsAllowed:          true,
		},
		"APTSYD001": {
			OptionID:                "APTSYD001",
			ChargeUnit:              "Nights",
			MaxPaxPerCharge:         4,
			ChildrenAllowed:         true,
			ChildrenCountInPaxBreak: true,
			InfantsAllowed:          true,
			InfantsCountInPaxBreak:  true,
		},
		"TOURSYD01": {
			OptionID:        "TOURSYD01",
			ChargeUnit:      "Days",
			FixedDuration:   1,
			MaxPaxPerCharge: 12,
			ChildrenAllowed: true,
		},
	}
}

// calendar publishes quarterly seasons from the start of last year until
// the end of the month six months after now. Christmas week is closed.
func calendar(now time.Time) []period {
	now = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := time.Date(now.Year(), now.Month()+7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	var periods []period
	for qs := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC); !qs.After(cutoff); qs = qs.AddDate(0, 3, 0) {
		season := seasons[(int(qs.Month())-1)/3]
		qe := qs.AddDate(0, 3, -1)
		if qe.After(cutoff) {
			qe = cutoff
		}
		p := period{
			start:      qs,
			end:        qe,
			code:       season.code,
			name:       season.name,
			minStay:    season.minStay,
			maxStay:    maxStay,
			multiplier: season.multiplier,
		}
		if qs.Month() != time.October {
			periods = append(periods, p)
			continue
		}

		closedStart := time.Date(qs.Year(), time.December, 24, 0, 0, 0, 0, time.UTC)
		closedEnd := closedStart.AddDate(0, 0, 2)
		before, closed, after := p, p, p
		before.end = closedStart.AddDate(0, 0, -1)
		closed.start, closed.end, closed.closed = closedStart, closedEnd, true
		after.start = closedEnd.AddDate(0, 0, 1)
		for _, part := range []period{before, closed, after} {
			if !part.start.After(part.end) && !part.start.After(cutoff) {
				if part.end.After(cutoff) {
					part.end = cutoff
				}
				periods = append(periods, part)
			}
		}
	}
	return periods
}

// Register mounts the upstream routes on r.
func (u *upstream) Register(r gin.IRouter) {
	r.POST("/auth/check", u.simulate, u.checkAuth)

	api := r.Group("", u.simulate, u.authenticate)
	api.GET("/options/:id", u.option)
	api.POST("/dateranges", u.dateRanges)
	api.POST("/quotes", u.quotes)
}

// simulate adds random latency and fails a share of requests.
func (u *upstream) simulate(c *gin.Context) {
	if u.cfg.MaxLatency > 0 {
		latency := u.cfg.MinLatency
		if spread := u.cfg.MaxLatency - u.cfg.MinLatency; spread > 0 {
			latency += rand.N(spread)
		}
		select {
		case <-time.After(latency):
		case <-c.Request.Context().Done():
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
	}
	if rand.Float64() < u.cfg.FailureRate {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "inventory unavailable"})
		return
	}
	c.Next()
}

func (u *upstream) validAgent(c *gin.Context) bool {
	return c.GetHeader("X-Agent-Id") == u.cfg.AgentID && c.GetHeader("X-Agent-Password") == u.cfg.Password
}

func (u *upstream) authenticate(c *gin.Context) {
	if !u.validAgent(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid agent credentials"})
		return
	}
	c.Next()
}

func (u *upstream) checkAuth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": u.validAgent(c)})
}

func (u *upstream) option(c *gin.Context) {
	opt, ok := u.options[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown option"})
		return
	}
	c.JSON(http.StatusOK, opt)
}

type windowQuery struct {
	OptionID string           `json:"option_id"`
	Date     string           `json:"date"`
	Units    int              `json:"units"`
	Rooms    []inventory.Room `json:"rooms"`
	Convert  string           `json:"convert"`
}

func (u *upstream) window(c *gin.Context) (windowQuery, time.Time, time.Time, bool) {
	var q windowQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return q, time.Time{}, time.Time{}, false
	}
	if _, ok := u.options[q.OptionID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown option"})
		return q, time.Time{}, time.Time{}, false
	}
	start, err := availability.ParseDate(q.Date)
	if err != nil || q.Units < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date window"})
		return q, time.Time{}, time.Time{}, false
	}
	return q, start, start.AddDate(0, 0, q.Units-1), true
}

func (u *upstream) dateRanges(c *gin.Context) {
	q, start, end, ok := u.window(c)
	if !ok {
		return
	}

	var ranges []inventory.DateRange
	for _, p := range u.periods {
		if p.end.Before(start) || p.start.After(end) {
			continue
		}
		ranges = append(ranges, u.dateRange(p, q.Rooms))
	}
	c.JSON(http.StatusOK, gin.H{"date_ranges": oneOrMany(ranges)})
}

func (u *upstream) dateRange(p period, rooms []inventory.Room) inventory.DateRange {
	dr := inventory.DateRange{
		StartDate:   p.start.Format(availability.DateLayout),
		EndDate:     p.end.Format(availability.DateLayout),
		Currency:    currency,
		PriceCode:   p.code,
		RateName:    p.name,
		MinStay:     p.minStay,
		MaxStay:     p.maxStay,
		CancelHours: 48,
		Closed:      p.closed,
	}
	for _, rt := range roomTypes(rooms) {
		dr.RoomRates = append(dr.RoomRates, inventory.RoomRate{
			RoomType: rt,
			Price:    nightly(rt, p.multiplier),
		})
	}
	dr.ExtrasRates = inventory.OneOrMany[inventory.ExtraRate]{
		{Code: "BRK", Description: "Breakfast", Price: 2500},
	}
	return dr
}

func (u *upstream) quotes(c *gin.Context) {
	q, start, end, ok := u.window(c)
	if !ok {
		return
	}

	var total int64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		p, ok := u.periodOn(d)
		if !ok || p.closed {
			c.JSON(http.StatusOK, gin.H{"quotes": []inventory.Quote{}})
			return
		}
		for _, room := range q.Rooms {
			total += nightly(room.RoomType, p.multiplier)
		}
	}

	cur := currency
	if q.Convert == "Y" {
		cur = "USD"
		total = int64(math.Round(float64(total) * convertRatio))
	}

	quotes := []inventory.Quote{
		{
			RateID:            "RACK",
			Currency:          cur,
			TotalPrice:        total,
			AgentPrice:        int64(math.Round(float64(total) * agentRatio)),
			CurrencyPrecision: 2,
			CancelHours:       48,
			CancelPolicies: inventory.OneOrMany[inventory.CancelPolicy]{
				{Description: "Free cancellation until 48 hours before arrival", InEffect: true},
				{Description: "Full charge within 48 hours of arrival", PenaltyPercent: 100},
			},
		},
		{
			RateID:            "NRF",
			Currency:          cur,
			TotalPrice:        int64(math.Round(float64(total) * 0.9)),
			AgentPrice:        int64(math.Round(float64(total) * 0.9 * agentRatio)),
			CurrencyPrecision: 2,
			CancelPolicies: inventory.OneOrMany[inventory.CancelPolicy]{
				{Description: "Non-refundable", PenaltyPercent: 100, InEffect: true},
			},
		},
	}
	c.JSON(http.StatusOK, gin.H{"quotes": oneOrMany(quotes)})
}

func (u *upstream) periodOn(d time.Time) (period, bool) {
	for _, p := range u.periods {
		if !d.Before(p.start) && !d.After(p.end) {
			return p, true
		}
	}
	return period{}, false
}

func roomTypes(rooms []inventory.Room) []string {
	if len(rooms) == 0 {
		return []string{"SG", "TW", "DB", "TR"}
	}
	seen := make(map[string]bool, len(rooms))
	var types []string
	for _, r := range rooms {
		if !seen[r.RoomType] {
			seen[r.RoomType] = true
			types = append(types, r.RoomType)
		}
	}
	return types
}

func nightly(roomType string, multiplier float64) int64 {
	base, ok := roomPrices[roomType]
	if !ok {
		base = roomPrices["TW"]
	}
	return int64(math.Round(float64(base) * multiplier))
}

// oneOrMany sends a single element as a bare object half of the time,
// the way the real system does.
func oneOrMany[T any](items []T) any {
	if len(items) == 1 && rand.IntN(2) == 0 {
		return items[0]
	}
	if items == nil {
		return []T{}
	}
	return items
}
