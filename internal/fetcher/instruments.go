package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	instrumentsPath       = "/Instrumentos"
	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
)

// Options parameterise the exchange quote fetcher.
type Options struct {
	BaseURL         string
	SubscriptionKey string
	Timeout         time.Duration
	UserAgent       string
}

// Instruments fetches quotes from the Bolsa de Santiago consulta API.
type Instruments struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewInstruments constructs an instrument list fetcher.
func NewInstruments(opts Options, logger zerolog.Logger) *Instruments {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")

	return &Instruments{
		opts:    opts,
		logger:  logger.With().Str("component", "quote_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// StatusError reports a non-200 response from the quote API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("quote api error (%d): %s", e.Code, e.Body)
	}
	return fmt.Sprintf("quote api error (%d)", e.Code)
}

// FetchInstruments performs one GET against /Instrumentos. A single attempt,
// no retries: a failed cycle is simply skipped by the caller.
func (f *Instruments) FetchInstruments(ctx context.Context) ([]Instrument, error) {
	if f.baseURL == "" {
		return nil, errors.New("quote api base url not configured")
	}
	if f.opts.SubscriptionKey == "" {
		return nil, errors.New("subscription key not configured")
	}

	endpoint := f.baseURL + instrumentsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(subscriptionKeyHeader, f.opts.SubscriptionKey)
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "bolsawatch/1.0")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(payload)}
	}

	var records []Instrument
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("parse instrument list: %w", err)
	}

	f.logger.Debug().Int("records", len(records)).Msg("instrument list fetched")
	return records, nil
}

func snippet(payload []byte) string {
	const max = 200
	s := strings.TrimSpace(string(payload))
	if len(s) > max {
		return s[:max]
	}
	return s
}

var _ QuoteFetcher = (*Instruments)(nil)
