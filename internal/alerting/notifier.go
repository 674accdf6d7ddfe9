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

	"rockwatch/internal/classify"
	"rockwatch/internal/model"
)

// Notification 封装需要推送给值班人员的告警。
type Notification struct {
	Alert     model.Alert
	Tier      classify.Tier
	Dashboard string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
	Channel() string
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

// Channel implements Notifier.
func (n *TelegramNotifier) Channel() string { return "telegram" }

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

	n.logger.Info().Int64("alert_id", note.Alert.ID).
		Str("severity", string(note.Alert.Severity)).
		Msg("告警已发送 (Telegram)")
	return nil
}

// LogNotifier 仅写日志，未配置 Telegram 时使用。
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier 构造日志告警器。
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Channel implements Notifier.
func (n *LogNotifier) Channel() string { return "log" }

// Notify 以 warn 级别记录告警。
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Warn().
		Int64("alert_id", note.Alert.ID).
		Str("severity", string(note.Alert.Severity)).
		Str("alert_type", note.Alert.AlertType).
		Str("message", note.Alert.Message).
		Msg("high-risk alert")
	return nil
}

func renderMessage(note Notification) string {
	a := note.Alert
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Rockfall Alert] %s\n", a.Severity))
	builder.WriteString(fmt.Sprintf("ID: %d\n", a.ID))
	if !a.Timestamp.IsZero() {
		builder.WriteString(fmt.Sprintf("Time: %s UTC\n", a.Timestamp.UTC().Format(time.RFC3339)))
	}
	builder.WriteString(fmt.Sprintf("Type: %s\n", a.AlertType))
	builder.WriteString(fmt.Sprintf("Status: %s\n", a.Status))
	if a.HasLocation() {
		builder.WriteString(fmt.Sprintf("Location: %s\n", *a.Location))
	}
	builder.WriteString(a.Message)
	if note.Dashboard != "" {
		builder.WriteString("\n" + note.Dashboard)
	}
	return builder.String()
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
