package alerting

import (
	"testing"

	"github.com/shopspring/decimal"
)

func pct(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

var threshold = decimal.NewFromFloat(2.0)

func TestStateFiresOnceWhileBreaching(t *testing.T) {
	state := NewState()

	if _, fired := state.Evaluate("AAPL", pct(1.0), threshold); fired {
		t.Fatal("1.0% 不应触发告警")
	}

	event, fired := state.Evaluate("AAPL", pct(2.5), threshold)
	if !fired {
		t.Fatal("2.5% 应触发告警")
	}
	if event.ID != "AAPL_UP" || event.Direction != DirectionUp {
		t.Fatalf("告警标识不正确: %#v", event)
	}

	if _, fired := state.Evaluate("AAPL", pct(2.6), threshold); fired {
		t.Fatal("持续突破期间不应重复告警")
	}
}

func TestStateClearsBothDirectionsOnRecovery(t *testing.T) {
	state := NewState()

	if _, fired := state.Evaluate("AAPL", pct(2.5), threshold); !fired {
		t.Fatal("应先触发 UP 告警")
	}
	if _, fired := state.Evaluate("AAPL", pct(-2.5), threshold); !fired {
		t.Fatal("应再触发 DOWN 告警")
	}
	if got := len(state.FiredIDs()); got != 2 {
		t.Fatalf("期望 2 个已触发标识, 实际 %d", got)
	}

	// recovery under threshold re-arms both variants
	if _, fired := state.Evaluate("AAPL", pct(1.9), threshold); fired {
		t.Fatal("回落不应触发告警")
	}
	if got := len(state.FiredIDs()); got != 0 {
		t.Fatalf("回落后应清空标识, 实际 %v", state.FiredIDs())
	}

	if _, fired := state.Evaluate("AAPL", pct(2.5), threshold); !fired {
		t.Fatal("清空后再次突破应重新告警")
	}
}

func TestStateDownBreach(t *testing.T) {
	state := NewState()

	event, fired := state.Evaluate("BBB", pct(-10.0), threshold)
	if !fired {
		t.Fatal("-10% 应触发告警")
	}
	if event.ID != "BBB_DOWN" {
		t.Fatalf("期望 BBB_DOWN, 实际 %s", event.ID)
	}
}

func TestStateZeroClassifiesDown(t *testing.T) {
	state := NewState()

	// 0 classifies DOWN by the sign rule but can never breach
	if _, fired := state.Evaluate("CCC", pct(0), threshold); fired {
		t.Fatal("0% 不应触发告警")
	}

	event, fired := state.Evaluate("CCC", pct(0), decimal.Zero)
	if !fired {
		t.Fatal("阈值为 0 时 0% 也会触发, 用于验证方向判定")
	}
	if event.Direction != DirectionDown {
		t.Fatalf("0 应判定为 DOWN, 实际 %s", event.Direction)
	}
}

func TestStateReset(t *testing.T) {
	state := NewState()
	_, _ = state.Evaluate("AAPL", pct(3.0), threshold)
	state.Reset()
	if len(state.FiredIDs()) != 0 {
		t.Fatal("Reset 后应无标识")
	}
}

func TestStatePrefixIsolation(t *testing.T) {
	state := NewState()
	_, _ = state.Evaluate("AA", pct(3.0), threshold)
	_, _ = state.Evaluate("AAPL", pct(3.0), threshold)

	// recovery of AA must not clear AAPL, despite the shared code prefix
	_, _ = state.Evaluate("AA", pct(0.5), threshold)
	ids := state.FiredIDs()
	if len(ids) != 1 || ids[0] != "AAPL_UP" {
		t.Fatalf("AAPL_UP 应保留, 实际 %v", ids)
	}
}
