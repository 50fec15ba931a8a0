package market

import (
	"time"

	"github.com/shopspring/decimal"

	"bolsawatch/internal/storage"
)

// Point is one sparkline sample.
type Point struct {
	Fecha  time.Time       `json:"fecha"`
	Precio decimal.Decimal `json:"precio"`
}

// Card is the derived per-instrument view, recomputed every cycle. Nothing
// here is persisted.
type Card struct {
	NEMO    string          `json:"nemo"`
	Price   decimal.Decimal `json:"price"`
	Delta   Delta           `json:"delta"`
	History []Point         `json:"history"`
}

// Snapshot is the full dashboard state produced by one cycle. When Err is
// set, the cycle failed before rendering and Cards is empty. Warning carries
// non-fatal degradations: the cycle rendered, but persistence failed, so the
// cards are built from the previously stored history.
type Snapshot struct {
	UpdatedAt   time.Time `json:"updated_at"`
	MarketOpen  bool      `json:"market_open"`
	Cards       []Card    `json:"cards"`
	Err         string    `json:"error,omitempty"`
	Warning     string    `json:"warning,omitempty"`
	FiredAlerts []string  `json:"fired_alerts"`
}

// HistoryPoints projects an instrument's rows into sparkline samples,
// dropping rows whose price failed coercion.
func HistoryPoints(history []storage.Observation, nemo string) []Point {
	var points []Point
	for _, obs := range FilterHistory(history, nemo) {
		if !obs.Precio.Valid {
			continue
		}
		points = append(points, Point{Fecha: obs.Fecha, Precio: obs.Precio.Decimal})
	}
	return points
}
