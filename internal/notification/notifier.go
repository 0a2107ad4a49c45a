// Package notification delivers trading-event alerts (order fills,
// square-offs, journal failures) to external channels such as Telegram
// and generic webhooks.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"papertrade-systemv1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// OrderFilled builds the alert for a completed order.
func OrderFilled(o model.Order) Alert {
	title := fmt.Sprintf("Order Filled: %s", o.Symbol)
	level := AlertInfo
	if o.Variety == model.VarietyAuto {
		title = fmt.Sprintf("Auto Square-Off: %s", o.Symbol)
		level = AlertWarning
	}
	return Alert{
		Level: level,
		Title: title,
		Message: fmt.Sprintf("%s %d %s @ %s (%s) — %s",
			o.Side, o.Qty, o.Symbol, o.Price.StringFixed(2), o.Product, o.OrderID),
	}
}

// SquareOffSummary builds a single alert covering an end-of-day sweep.
func SquareOffSummary(orders []model.Order) Alert {
	syms := make([]string, 0, len(orders))
	for _, o := range orders {
		syms = append(syms, o.Symbol)
	}
	return Alert{
		Level:   AlertWarning,
		Title:   fmt.Sprintf("Auto Square-Off: %d position(s) closed", len(orders)),
		Message: strings.Join(syms, ", "),
	}
}

// LogNotifier writes alerts to the process log. Used when no external
// channel is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(_ context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans an alert out to several backends. Delivery failures are
// logged per backend; the first error is returned.
type Multi struct {
	backends []Notifier
}

func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	var first error
	for _, b := range m.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend %T failed: %v", b, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// FromEnv assembles the notifier stack from config values. Empty values
// disable a backend; with nothing configured alerts go to the log.
func FromEnv(webhookURL, telegramToken, telegramChatID string) Notifier {
	var backends []Notifier
	if webhookURL != "" {
		backends = append(backends, NewWebhookNotifier(webhookURL))
	}
	if telegramToken != "" && telegramChatID != "" {
		backends = append(backends, NewTelegramNotifier(telegramToken, telegramChatID))
	}
	switch len(backends) {
	case 0:
		return NewLogNotifier()
	case 1:
		return backends[0]
	}
	return NewMulti(backends...)
}
