package availability

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPassengerMismatch is returned when named passengers disagree with a room's counts.
var ErrPassengerMismatch = errors.New("passenger details do not match room configuration")

// NormalizePax folds children and infants into adults when the option does not allow
// them individually but still counts them in the pax break. The upstream returns no
// rates for such combinations otherwise. Room order and total pax are preserved.
func NormalizePax(rooms []RoomConfig, opt OptionInfo) ([]RoomConfig, error) {
	childrenAsAdults := !opt.ChildrenAllowed && opt.ChildrenCountInPaxBreak
	infantsAsAdults := !opt.InfantsAllowed && opt.InfantsCountInPaxBreak

	out := make([]RoomConfig, 0, len(rooms))
	for i, room := range rooms {
		if err := checkPassengers(room); err != nil {
			return nil, fmt.Errorf("room %d: %w", i+1, err)
		}

		r := room
		r.Passengers = nil
		if childrenAsAdults {
			r.Adults += r.Children
			r.Children = 0
		}
		if infantsAsAdults {
			r.Adults += r.Infants
			r.Infants = 0
		}

		for _, p := range room.Passengers {
			switch paxType(p.Type) {
			case PaxChild:
				if childrenAsAdults {
					p.Type = PaxAdult
				}
			case PaxInfant:
				if infantsAsAdults {
					p.Type = PaxAdult
				}
			}
			r.Passengers = append(r.Passengers, p)
		}
		out = append(out, r)
	}
	return out, nil
}

// checkPassengers verifies that a named passenger list, if present, sums to the room counts.
func checkPassengers(room RoomConfig) error {
	if len(room.Passengers) == 0 {
		return nil
	}
	var adults, children, infants int
	for _, p := range room.Passengers {
		switch paxType(p.Type) {
		case PaxChild:
			children++
		case PaxInfant:
			infants++
		default:
			adults++
		}
	}
	if adults != room.Adults || children != room.Children || infants != room.Infants {
		return ErrPassengerMismatch
	}
	return nil
}

func paxType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "child", "c":
		return PaxChild
	case "infant", "i":
		return PaxInfant
	default:
		return PaxAdult
	}
}

// exceedsMaxPax returns the 1-based index of the first room over the per-charge-unit limit.
// A non-positive limit disables the check.
func exceedsMaxPax(rooms []RoomConfig, limit int) (int, bool) {
	if limit <= 0 {
		return 0, false
	}
	for i, r := range rooms {
		if r.Total() > limit {
			return i + 1, true
		}
	}
	return 0, false
}
