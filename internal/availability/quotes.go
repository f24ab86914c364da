package availability

import (
	"context"
	"time"

	"github.com/alex-user-go/rateengine/internal/inventory"
)

// Quotes fetches priced stay quotes from the upstream inventory.
type Quotes struct {
	inv inventory.Inventory
}

// NewQuotes creates a new Quotes fetcher.
func NewQuotes(inv inventory.Inventory) *Quotes {
	return &Quotes{inv: inv}
}

// FetchStayQuotes returns the quotes for an exact start date, duration and room configuration.
// Lines without a rate ID are dropped.
func (q *Quotes) FetchStayQuotes(ctx context.Context, optionID string, start time.Time, units int, rooms []RoomConfig, displaySupplierCurrency bool) ([]StayQuote, error) {
	if units < 1 {
		return nil, nil
	}
	raw, err := q.inv.Quotes(ctx, inventory.QuoteQuery{
		OptionID:                optionID,
		Date:                    formatDate(start),
		Units:                   units,
		Rooms:                   roomsToInventory(rooms),
		DisplaySupplierCurrency: displaySupplierCurrency,
	})
	if err != nil {
		return nil, err
	}

	out := make([]StayQuote, 0, len(raw))
	for _, r := range raw {
		sq := quoteFromInventory(r)
		if sq.RateID == "" {
			continue
		}
		out = append(out, sq)
	}
	return out, nil
}
