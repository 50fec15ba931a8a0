package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Notification 封装单次告警上下文。
type Notification struct {
	At           time.Time
	NEMO         string
	Direction    string
	DeltaPct     decimal.Decimal
	ThresholdPct decimal.Decimal
	Price        decimal.Decimal
	Sound        bool
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Str("nemo", note.NEMO).
		Str("direction", note.Direction).
		Msg("告警已发送 (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	icon := "🔻"
	if note.Direction == DirectionUp {
		icon = "🚀"
	}

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s ALERTA: %s movió un %s%%\n", icon, note.NEMO, note.DeltaPct.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Price: %s\n", note.Price.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Threshold: %s%%\n", note.ThresholdPct.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("At: %s\n", note.At.Format(time.RFC3339)))
	return builder.String()
}

// LogNotifier 将告警写入日志，作为默认的"toast"通道。
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier 构造日志告警器。
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify 记录一条结构化告警。声音播放属于外部协作方，这里只携带标记。
func (l *LogNotifier) Notify(ctx context.Context, note Notification) error {
	l.logger.Warn().
		Str("nemo", note.NEMO).
		Str("direction", note.Direction).
		Str("delta_pct", note.DeltaPct.StringFixed(2)).
		Bool("sound", note.Sound).
		Msg("price variation alert")
	return nil
}

var _ Notifier = (*TelegramNotifier)(nil)
var _ Notifier = (*LogNotifier)(nil)
