package market

import (
	"fmt"
	"time"
)

// Hours is the fixed daily trading window. No holiday or weekend awareness:
// the indicator is a pure function of local wall-clock time.
type Hours struct {
	loc      *time.Location
	openMin  int
	closeMin int
}

// ParseHours builds the trading window from a tz name and HH:MM bounds.
func ParseHours(tz, openAt, closeAt string) (Hours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Hours{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}

	open, err := parseClock(openAt)
	if err != nil {
		return Hours{}, fmt.Errorf("parse open_at: %w", err)
	}
	closeAtMin, err := parseClock(closeAt)
	if err != nil {
		return Hours{}, fmt.Errorf("parse close_at: %w", err)
	}

	return Hours{loc: loc, openMin: open, closeMin: closeAtMin}, nil
}

// Location exposes the exchange wall-clock zone.
func (h Hours) Location() *time.Location {
	if h.loc == nil {
		return time.Local
	}
	return h.loc
}

// IsOpen reports whether now falls inside the daily window, bounds inclusive.
// The comparison is second-precise: the market closes at HH:MM:00 sharp, so
// 17:00:30 already counts as closed when close_at is 17:00.
func (h Hours) IsOpen(now time.Time) bool {
	local := now.In(h.Location())
	seconds := (local.Hour()*60+local.Minute())*60 + local.Second()
	return seconds >= h.openMin*60 && seconds <= h.closeMin*60
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
