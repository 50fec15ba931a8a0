package fetcher

import (
	"context"
)

// Instrument is one raw record from the exchange quote API.
type Instrument struct {
	NEMO      string  `json:"NEMO"`
	LastPrice float64 `json:"PRE_ULT_TR"`
	Variation float64 `json:"VAR_PRE"`
}

// QuoteFetcher retrieves the current instrument list from the exchange.
type QuoteFetcher interface {
	FetchInstruments(ctx context.Context) ([]Instrument, error)
}
