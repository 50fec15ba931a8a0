package market

import (
	"time"

	"github.com/shopspring/decimal"

	"bolsawatch/internal/fetcher"
	"bolsawatch/internal/storage"
)

// BuildObservations turns raw API records into history rows. Records without
// an instrument code are dropped; missing price or variation defaults to 0.
// Every row of a cycle shares the same timestamp.
func BuildObservations(raw []fetcher.Instrument, now time.Time) []storage.Observation {
	rows := make([]storage.Observation, 0, len(raw))
	for _, record := range raw {
		if record.NEMO == "" {
			continue
		}
		rows = append(rows, storage.NewObservation(
			now,
			record.NEMO,
			decimal.NewFromFloat(record.LastPrice),
			decimal.NewFromFloat(record.Variation),
		))
	}
	return rows
}

// FilterHistory returns the rows of history belonging to nemo, preserving
// the loaded (ascending) order.
func FilterHistory(history []storage.Observation, nemo string) []storage.Observation {
	var rows []storage.Observation
	for _, obs := range history {
		if obs.NEMO == nemo {
			rows = append(rows, obs)
		}
	}
	return rows
}
