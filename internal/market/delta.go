package market

import (
	"github.com/shopspring/decimal"

	"bolsawatch/internal/storage"
)

// Trend states the sparkline colour for an instrument.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

var hundred = decimal.NewFromInt(100)

// Delta is the per-instrument display delta. Computed is false when the
// loaded history holds fewer than two usable prices for the instrument, in
// which case the renderer shows an awaiting-data placeholder instead of a
// number.
type Delta struct {
	Computed bool            `json:"computed"`
	Pct      decimal.Decimal `json:"pct"`
	Trend    Trend           `json:"trend"`
}

// ComputeDelta derives the percentage change between the chronologically
// first and last price of the currently loaded window for nemo. The baseline
// is the window start, not a fixed reference such as the daily open: it
// drifts earlier as the window grows across a long session.
func ComputeDelta(history []storage.Observation, nemo string) Delta {
	var prices []decimal.Decimal
	for _, obs := range FilterHistory(history, nemo) {
		if !obs.Precio.Valid {
			continue
		}
		prices = append(prices, obs.Precio.Decimal)
	}

	if len(prices) < 2 {
		return Delta{Trend: TrendUp}
	}

	first := prices[0]
	last := prices[len(prices)-1]

	trend := TrendUp
	if last.LessThan(first) {
		trend = TrendDown
	}

	// Guard against a zero or negative baseline: the delta stays exactly 0.
	if first.Sign() <= 0 {
		return Delta{Computed: true, Trend: trend}
	}

	pct := last.Sub(first).Div(first).Mul(hundred)
	return Delta{Computed: true, Pct: pct, Trend: trend}
}
