package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestFetchMissingConfig(t *testing.T) {
	f := NewInstruments(Options{}, noopLogger())
	if _, err := f.FetchInstruments(context.Background()); err == nil {
		t.Fatal("未配置 base url 时应返回错误")
	}

	f = NewInstruments(Options{BaseURL: "http://localhost"}, noopLogger())
	if _, err := f.FetchInstruments(context.Background()); err == nil {
		t.Fatal("缺少 subscription key 应返回错误")
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewInstruments(Options{
		BaseURL:         srv.URL,
		SubscriptionKey: "key",
		Timeout:         time.Second,
	}, noopLogger())

	_, err := f.FetchInstruments(context.Background())
	if err == nil {
		t.Fatal("HTTP 503 应返回错误")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("期望 StatusError, 实际 %T", err)
	}
	if statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("期望状态码 503, 实际 %d", statusErr.Code)
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Instrumentos" {
			t.Fatalf("路径应为 /Instrumentos, 实际 %s", r.URL.Path)
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "key" {
			t.Fatal("缺少 subscription key 请求头")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"NEMO": "AAPL", "PRE_ULT_TR": 100.5, "VAR_PRE": 1.2},
			{"NEMO": "", "PRE_ULT_TR": 0},
		})
	}))
	defer srv.Close()

	f := NewInstruments(Options{
		BaseURL:         srv.URL,
		SubscriptionKey: "key",
		Timeout:         time.Second,
		UserAgent:       "test",
	}, noopLogger())

	records, err := f.FetchInstruments(context.Background())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("期望 2 条记录, 实际 %d", len(records))
	}
	if records[0].NEMO != "AAPL" || records[0].LastPrice != 100.5 {
		t.Fatalf("记录解析不正确: %#v", records[0])
	}
}
