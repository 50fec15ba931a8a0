package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bolsawatch/internal/alerting"
)

// SimulateAlert 以给定的变化率跑一遍告警状态机并真正推送通知。
func (a *App) SimulateAlert(ctx context.Context, nemo string, deltaPct decimal.Decimal) error {
	threshold := decimal.NewFromFloat(a.Config.Alerting.ThresholdPct)

	state := alerting.NewState()
	event, fired := state.Evaluate(nemo, deltaPct, threshold)
	if !fired {
		return fmt.Errorf("变化率 %s%% 未达到阈值 %s%%, 不会触发告警", deltaPct.StringFixed(2), threshold.StringFixed(2))
	}

	note := alerting.Notification{
		At:           time.Now(),
		NEMO:         event.NEMO,
		Direction:    event.Direction,
		DeltaPct:     event.DeltaPct,
		ThresholdPct: threshold,
		Sound:        a.Config.Alerting.Sound,
	}
	return a.newNotifier().Notify(ctx, note)
}
