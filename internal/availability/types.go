package availability

import (
	"time"

	"github.com/alex-user-go/rateengine/internal/inventory"
)

// ResultType is the only result type the engine produces.
const ResultType = "inventory"

// CustomRateID replaces the upstream rate ID on marked-up custom rates.
const CustomRateID = "Custom"

// Passenger types as the upstream labels them.
const (
	PaxAdult  = "Adult"
	PaxChild  = "Child"
	PaxInfant = "Infant"
)

// OptionInfo is the option metadata the engine needs.
type OptionInfo struct {
	OptionID                string
	ChargeUnit              string
	FixedDuration           int
	MaxPaxPerCharge         int
	ChildrenAllowed         bool
	ChildrenCountInPaxBreak bool
	InfantsAllowed          bool
	InfantsCountInPaxBreak  bool
}

// DateRange is one segment of a rate calendar. Start and End are inclusive calendar days.
type DateRange struct {
	Start       time.Time
	End         time.Time
	Currency    string
	PriceCode   string
	RateName    string
	RateText    string
	MinStay     int
	MaxStay     int
	CancelHours int
	Closed      bool
	RoomRates   []inventory.RoomRate
	ExtrasRates []inventory.ExtraRate
}

// Overlaps reports whether the range shares at least one day with [start, end].
func (d DateRange) Overlaps(start, end time.Time) bool {
	return !d.End.Before(start) && !d.Start.After(end)
}

// CancelPolicy is an option-level cancellation rule.
type CancelPolicy struct {
	Description    string
	PenaltyPercent int
	InEffect       bool
}

// Point is a pickup or dropoff location.
type Point struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Time    string `json:"time,omitempty"`
}

// ExternalRateMetadata is normalized metadata for externally sourced rates.
type ExternalRateMetadata struct {
	CancelPolicies []string
	PickupPoints   []Point
	DropoffPoints  []Point
	StartTimes     []string
}

// StayQuote is one priced line for an option, date, duration and room configuration.
// Prices are in minor currency units.
type StayQuote struct {
	RateID            string
	Currency          string
	TotalPrice        int64
	AgentPrice        int64
	CurrencyPrecision int
	CancelHours       int
	CancelPolicies    []CancelPolicy
	External          ExternalRateMetadata
}

// RoomConfig is the pax configuration of one requested room.
type RoomConfig struct {
	RoomType   string                `json:"room_type"`
	Adults     int                   `json:"adults"`
	Children   int                   `json:"children"`
	Infants    int                   `json:"infants"`
	Passengers []inventory.Passenger `json:"passengers,omitempty"`
}

// Total returns the number of travellers in the room.
func (r RoomConfig) Total() int {
	return r.Adults + r.Children + r.Infants
}

// CustomRateConfig controls custom rate synthesis for uncovered dates.
type CustomRateConfig struct {
	Enabled              bool    `json:"enabled" yaml:"enabled"`
	MarkupPercentage     float64 `json:"markup_percentage" yaml:"markup_percentage"`
	ExtendedBookingYears int     `json:"extended_booking_years" yaml:"extended_booking_years"`
	UseLastYearRate      bool    `json:"use_last_year_rate" yaml:"use_last_year_rate"`
}

// Markup returns the effective markup percentage; values outside [1,100] mean no markup.
func (c CustomRateConfig) Markup() float64 {
	if c.MarkupPercentage < 1 || c.MarkupPercentage > 100 {
		return 0
	}
	return c.MarkupPercentage
}

// DefaultExtendedBookingYears applies when ExtendedBookingYears is out of range.
const DefaultExtendedBookingYears = 2

// Years returns the effective extension ceiling in years.
func (c CustomRateConfig) Years() int {
	if c.ExtendedBookingYears < 1 || c.ExtendedBookingYears > 100 {
		return DefaultExtendedBookingYears
	}
	return c.ExtendedBookingYears
}

// Request is one availability query.
type Request struct {
	OptionID                string
	StartDate               time.Time
	Duration                int
	Rooms                   []RoomConfig
	DisplaySupplierCurrency bool
}

// RateLine is a normalized pricing line ready for display or booking.
type RateLine struct {
	RateID            string   `json:"rate_id"`
	Currency          string   `json:"currency"`
	TotalPrice        int64    `json:"total_price"`
	AgentPrice        int64    `json:"agent_price"`
	CurrencyPrecision int      `json:"currency_precision"`
	CancelHours       int      `json:"cancel_hours"`
	CancelPolicies    []string `json:"cancel_policies"`
	PickupPoints      []Point  `json:"pickup_points"`
	DropoffPoints     []Point  `json:"dropoff_points"`
	StartTimes        []string `json:"start_times"`
}

// BookabilityResult is the engine's decision for one request.
type BookabilityResult struct {
	Bookable bool       `json:"bookable"`
	Type     string     `json:"type"`
	EndDate  string     `json:"end_date,omitempty"`
	Message  string     `json:"message,omitempty"`
	Rates    []RateLine `json:"rates"`
}
