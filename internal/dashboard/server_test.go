package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bolsawatch/internal/config"
	"bolsawatch/internal/market"
)

type stubClearer struct {
	cleared bool
	err     error
}

func (s *stubClearer) ClearAll(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.cleared = true
	return nil
}

func testSnapshot() market.Snapshot {
	t1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return market.Snapshot{
		UpdatedAt:  t1,
		MarketOpen: true,
		Cards: []market.Card{{
			NEMO:  "AAPL",
			Price: decimal.NewFromInt(105),
			Delta: market.Delta{Computed: true, Pct: decimal.NewFromInt(5), Trend: market.TrendUp},
			History: []market.Point{
				{Fecha: t1, Precio: decimal.NewFromInt(100)},
				{Fecha: t1.Add(10 * time.Minute), Precio: decimal.NewFromInt(105)},
			},
		}},
		FiredAlerts: []string{"AAPL_UP"},
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	srv := NewServer(config.DashboardConfig{Listen: "127.0.0.1:0"}, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var before struct {
		Ready bool `json:"ready"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if before.Ready {
		t.Fatal("snapshot must not be ready before the first publish")
	}

	srv.Publish(testSnapshot())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	var after struct {
		Ready    bool            `json:"ready"`
		Snapshot market.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !after.Ready || len(after.Snapshot.Cards) != 1 {
		t.Fatalf("unexpected snapshot payload: %s", rec.Body.String())
	}
	if after.Snapshot.Cards[0].NEMO != "AAPL" {
		t.Fatalf("unexpected card: %#v", after.Snapshot.Cards[0])
	}
}

func TestSparklineEndpoint(t *testing.T) {
	srv := NewServer(config.DashboardConfig{Listen: "127.0.0.1:0"}, nil, zerolog.Nop())
	srv.Publish(testSnapshot())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sparkline/AAPL.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("sparkline body must not be empty")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sparkline/NOPE.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown instrument should 404, got %d", rec.Code)
	}
}

func TestRunReturnsListenFailure(t *testing.T) {
	srv := NewServer(config.DashboardConfig{Listen: "256.256.256.256:0"}, nil, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Run(ctx); err == nil {
		t.Fatal("an unbindable address must surface as an error, not block")
	}
}

func TestClearEndpoint(t *testing.T) {
	clearer := &stubClearer{}
	srv := NewServer(config.DashboardConfig{Listen: "127.0.0.1:0"}, clearer, zerolog.Nop())
	srv.Publish(testSnapshot())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/history/clear", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !clearer.cleared {
		t.Fatal("clear action must reach the clearer")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	var resp struct {
		Ready bool `json:"ready"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Ready {
		t.Fatal("clear must drop the cached snapshot")
	}
}
