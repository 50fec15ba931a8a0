package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// FechaLayout is the canonical timestamp format of the observations table,
// wall-clock in the exchange's local zone.
const FechaLayout = "2006-01-02 15:04:05"

// ObservationsTable is the backing table name. Surfaced in write-failure
// messages so the operator can check grants.
const ObservationsTable = "observations"

// Observation is one appended price row. Rows are never mutated; the table
// only grows, except for an explicit wholesale clear.
type Observation struct {
	Fecha  time.Time
	NEMO   string
	Precio decimal.NullDecimal
	Var    decimal.NullDecimal
}

// NewObservation builds a fully-populated row stamped with ts.
func NewObservation(ts time.Time, nemo string, precio, varPct decimal.Decimal) Observation {
	return Observation{
		Fecha:  ts,
		NEMO:   nemo,
		Precio: decimal.NewNullDecimal(precio),
		Var:    decimal.NewNullDecimal(varPct),
	}
}
