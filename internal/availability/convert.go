package availability

import (
	"fmt"
	"strings"

	"github.com/alex-user-go/rateengine/internal/inventory"
)

func optionFromInventory(o inventory.Option) OptionInfo {
	return OptionInfo{
		OptionID:                o.OptionID,
		ChargeUnit:              strings.TrimSpace(o.ChargeUnit),
		FixedDuration:           o.FixedDuration,
		MaxPaxPerCharge:         o.MaxPaxPerCharge,
		ChildrenAllowed:         o.ChildrenAllowed,
		ChildrenCountInPaxBreak: o.ChildrenCountInPaxBreak,
		InfantsAllowed:          o.InfantsAllowed,
		InfantsCountInPaxBreak:  o.InfantsCountInPaxBreak,
	}
}

func dateRangeFromInventory(r inventory.DateRange) (DateRange, error) {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid start date %q: %w", r.StartDate, err)
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid end date %q: %w", r.EndDate, err)
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("date range %s..%s ends before it starts", r.StartDate, r.EndDate)
	}
	return DateRange{
		Start:       start,
		End:         end,
		Currency:    strings.ToUpper(strings.TrimSpace(r.Currency)),
		PriceCode:   r.PriceCode,
		RateName:    r.RateName,
		RateText:    r.RateText,
		MinStay:     r.MinStay,
		MaxStay:     r.MaxStay,
		CancelHours: r.CancelHours,
		Closed:      r.Closed,
		RoomRates:   append([]inventory.RoomRate(nil), r.RoomRates...),
		ExtrasRates: append([]inventory.ExtraRate(nil), r.ExtrasRates...),
	}, nil
}

func quoteFromInventory(q inventory.Quote) StayQuote {
	out := StayQuote{
		RateID:            strings.TrimSpace(q.RateID),
		Currency:          strings.ToUpper(strings.TrimSpace(q.Currency)),
		TotalPrice:        q.TotalPrice,
		AgentPrice:        q.AgentPrice,
		CurrencyPrecision: q.CurrencyPrecision,
		CancelHours:       q.CancelHours,
	}
	for _, p := range q.CancelPolicies {
		out.CancelPolicies = append(out.CancelPolicies, CancelPolicy{
			Description:    p.Description,
			PenaltyPercent: p.PenaltyPercent,
			InEffect:       p.InEffect,
		})
	}
	if ext := q.ExternalRate; ext != nil {
		for _, p := range ext.CancelPolicies {
			if d := strings.TrimSpace(p.Description); d != "" {
				out.External.CancelPolicies = append(out.External.CancelPolicies, d)
			}
		}
		out.External.PickupPoints = pointsFromInventory(ext.PickupPoints)
		out.External.DropoffPoints = pointsFromInventory(ext.DropoffPoints)
		out.External.StartTimes = append([]string(nil), ext.StartTimes...)
	}
	return out
}

func pointsFromInventory(in []inventory.Point) []Point {
	if len(in) == 0 {
		return nil
	}
	out := make([]Point, 0, len(in))
	for _, p := range in {
		out = append(out, Point{Name: p.Name, Address: p.Address, Time: p.Time})
	}
	return out
}

func roomsToInventory(rooms []RoomConfig) []inventory.Room {
	out := make([]inventory.Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, inventory.Room{
			RoomType:   r.RoomType,
			Adults:     r.Adults,
			Children:   r.Children,
			Infants:    r.Infants,
			Passengers: append([]inventory.Passenger(nil), r.Passengers...),
		})
	}
	return out
}
