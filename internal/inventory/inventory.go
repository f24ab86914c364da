package inventory

import (
	"context"
	"errors"
	"fmt"
)

// Option is the metadata the upstream system publishes for a bookable option.
type Option struct {
	OptionID                string `json:"option_id"`
	ChargeUnit              string `json:"charge_unit"`
	FixedDuration           int    `json:"fixed_duration"`
	MaxPaxPerCharge         int    `json:"max_pax_per_charge"`
	ChildrenAllowed         bool   `json:"children_allowed"`
	ChildrenCountInPaxBreak bool   `json:"children_count_in_pax_break"`
	InfantsAllowed          bool   `json:"infants_allowed"`
	InfantsCountInPaxBreak  bool   `json:"infants_count_in_pax_break"`
}

// Passenger is a named traveller inside a room.
type Passenger struct {
	Title     string `json:"title,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Type      string `json:"type"`
	Age       int    `json:"age,omitempty"`
}

// Room addresses one requested room on the wire.
type Room struct {
	RoomType   string      `json:"room_type"`
	Adults     int         `json:"adults"`
	Children   int         `json:"children"`
	Infants    int         `json:"infants"`
	Passengers []Passenger `json:"passengers,omitempty"`
}

// RoomRate is a per-room-type price published in a date range.
type RoomRate struct {
	RoomType string `json:"room_type"`
	Price    int64  `json:"price"`
}

// ExtraRate is an optional extra published in a date range.
type ExtraRate struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// DateRange is one rate-calendar segment as the upstream returns it.
type DateRange struct {
	StartDate   string               `json:"start_date"`
	EndDate     string               `json:"end_date"`
	Currency    string               `json:"currency"`
	PriceCode   string               `json:"price_code"`
	RateName    string               `json:"rate_name"`
	RateText    string               `json:"rate_text"`
	MinStay     int                  `json:"min_stay"`
	MaxStay     int                  `json:"max_stay"`
	CancelHours int                  `json:"cancel_hours"`
	Closed      bool                 `json:"closed"`
	RoomRates   OneOrMany[RoomRate]  `json:"room_rates"`
	ExtrasRates OneOrMany[ExtraRate] `json:"extras_rates"`
}

// CancelPolicy is an option-level cancellation rule.
type CancelPolicy struct {
	Description    string `json:"description"`
	PenaltyPercent int    `json:"penalty_percent"`
	InEffect       bool   `json:"in_effect"`
}

// ExternalCancelPolicy is a descriptive-only policy carried by external rates.
type ExternalCancelPolicy struct {
	Description string `json:"description"`
}

// Point is a pickup or dropoff location.
type Point struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Time    string `json:"time,omitempty"`
}

// ExternalRate carries metadata for rates sourced from a third-party system.
type ExternalRate struct {
	CancelPolicies OneOrMany[ExternalCancelPolicy] `json:"cancel_policies"`
	PickupPoints   OneOrMany[Point]                `json:"pickup_points"`
	DropoffPoints  OneOrMany[Point]                `json:"dropoff_points"`
	StartTimes     OneOrMany[string]               `json:"start_times"`
}

// Quote is one priced stay line. Prices are in minor currency units.
type Quote struct {
	RateID            string                  `json:"rate_id"`
	Currency          string                  `json:"currency"`
	TotalPrice        int64                   `json:"total_price"`
	AgentPrice        int64                   `json:"agent_price"`
	CurrencyPrecision int                     `json:"currency_precision"`
	CancelHours       int                     `json:"cancel_hours"`
	CancelPolicies    OneOrMany[CancelPolicy] `json:"cancel_policies"`
	ExternalRate      *ExternalRate           `json:"external_rate,omitempty"`
}

// DateRangeQuery addresses a calendar lookup.
type DateRangeQuery struct {
	OptionID string `json:"option_id"`
	Date     string `json:"date"`
	Units    int    `json:"units"`
	Rooms    []Room `json:"rooms"`
}

// QuoteQuery addresses a stay quote lookup.
type QuoteQuery struct {
	OptionID                string `json:"option_id"`
	Date                    string `json:"date"`
	Units                   int    `json:"units"`
	Rooms                   []Room `json:"rooms"`
	DisplaySupplierCurrency bool   `json:"-"`
}

// Inventory is the upstream inventory system.
type Inventory interface {
	Option(ctx context.Context, optionID string) (Option, error)
	DateRanges(ctx context.Context, q DateRangeQuery) ([]DateRange, error)
	Quotes(ctx context.Context, q QuoteQuery) ([]Quote, error)
}

var (
	// ErrUpstream matches every failed or malformed upstream call.
	ErrUpstream = errors.New("inventory: upstream error")
	// ErrUnavailable is returned when the upstream cannot be reached.
	ErrUnavailable = errors.New("inventory: upstream unavailable")
	// ErrInvalidCredentials is returned when the upstream rejects the agent credentials.
	ErrInvalidCredentials = errors.New("inventory: invalid credentials")
)

// Error describes a failed upstream call.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("inventory %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inventory %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports every upstream error as ErrUpstream.
func (e *Error) Is(target error) bool { return target == ErrUpstream }
