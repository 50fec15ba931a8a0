package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func unconfiguredStore() *Store {
	return NewStore(nil, time.UTC, zerolog.Nop())
}

func TestLoadHistoryFailsSoft(t *testing.T) {
	// Reads never raise: a store without a pool behaves like the table is
	// empty, and the caller keeps rendering.
	history := unconfiguredStore().LoadHistory(context.Background())
	if len(history) != 0 {
		t.Fatalf("读取降级应返回空历史, 实际 %d 行", len(history))
	}
}

func TestWritesFailHard(t *testing.T) {
	store := unconfiguredStore()
	ctx := context.Background()

	if err := store.ReplaceHistory(ctx, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("写入应硬失败并返回 ErrNotConfigured, 实际 %v", err)
	}
	if err := store.ClearHistory(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("清空应硬失败并返回 ErrNotConfigured, 实际 %v", err)
	}
	if _, err := store.CountObservations(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("计数应硬失败并返回 ErrNotConfigured, 实际 %v", err)
	}
}

func TestCoerceDecimal(t *testing.T) {
	if got := coerceDecimal(nil); got.Valid {
		t.Fatal("NULL 列应解析为缺失值")
	}

	garbage := "N/A"
	if got := coerceDecimal(&garbage); got.Valid {
		t.Fatal("无法解析的文本应降级为缺失值, 而不是报错")
	}

	empty := ""
	if got := coerceDecimal(&empty); got.Valid {
		t.Fatal("空字符串应降级为缺失值")
	}

	number := "1234.56"
	got := coerceDecimal(&number)
	if !got.Valid || got.Decimal.StringFixed(2) != "1234.56" {
		t.Fatalf("数字文本应解析成功, 实际 %#v", got)
	}
}

func TestDecimalText(t *testing.T) {
	if got := decimalText(decimal.NullDecimal{}); got != nil {
		t.Fatalf("缺失值应写为 NULL, 实际 %v", got)
	}

	got := decimalText(decimal.NewNullDecimal(decimal.NewFromFloat(99.5)))
	text, ok := got.(string)
	if !ok || text != "99.5" {
		t.Fatalf("有效值应写为十进制文本, 实际 %#v", got)
	}
}

func TestNewObservation(t *testing.T) {
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	obs := NewObservation(ts, "AAPL", decimal.NewFromInt(100), decimal.NewFromFloat(1.2))
	if !obs.Fecha.Equal(ts) || obs.NEMO != "AAPL" {
		t.Fatalf("observation 字段不正确: %#v", obs)
	}
	if !obs.Precio.Valid || !obs.Var.Valid {
		t.Fatal("构造的行两列数值都应有效")
	}
}
