package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

func TestOrderFilledAlert(t *testing.T) {
	a := OrderFilled(model.Order{
		OrderID: "PAPER-7",
		Symbol:  "TCS.NS",
		Side:    model.SideBuy,
		Product: model.ProductIntraday,
		Variety: model.VarietyNormal,
		Qty:     10,
		Price:   decimal.RequireFromString("3240.5"),
	})
	if a.Level != AlertInfo {
		t.Errorf("level = %s, want INFO", a.Level)
	}
	if a.Title != "Order Filled: TCS.NS" {
		t.Errorf("title = %q", a.Title)
	}
	want := "BUY 10 TCS.NS @ 3240.50 (INTRADAY) — PAPER-7"
	if a.Message != want {
		t.Errorf("message = %q, want %q", a.Message, want)
	}
}

func TestAutoOrderEscalatesLevel(t *testing.T) {
	a := OrderFilled(model.Order{Symbol: "SBIN.NS", Variety: model.VarietyAuto, Price: decimal.Zero})
	if a.Level != AlertWarning {
		t.Errorf("level = %s, want WARNING", a.Level)
	}
	if a.Title != "Auto Square-Off: SBIN.NS" {
		t.Errorf("title = %q", a.Title)
	}
}

func TestWebhookNotifierPosts(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "t", Message: "m"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["source"] != "tradingdesk" || got["title"] != "t" {
		t.Errorf("payload = %v", got)
	}
}

func TestWebhookNotifierBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{}); err == nil {
		t.Error("want error on 500 response")
	}
}

type stubNotifier struct {
	sent int
	err  error
}

func (s *stubNotifier) Send(context.Context, Alert) error {
	s.sent++
	return s.err
}

func TestMultiFansOutAndKeepsFirstError(t *testing.T) {
	bad := &stubNotifier{err: errors.New("down")}
	good := &stubNotifier{}
	m := NewMulti(bad, good)

	err := m.Send(context.Background(), Alert{Title: "x"})
	if !errors.Is(err, bad.err) {
		t.Errorf("err = %v, want %v", err, bad.err)
	}
	if bad.sent != 1 || good.sent != 1 {
		t.Errorf("sent = %d/%d, want 1/1", bad.sent, good.sent)
	}
}

func TestFromEnv(t *testing.T) {
	if _, ok := FromEnv("", "", "").(*LogNotifier); !ok {
		t.Error("no config should fall back to LogNotifier")
	}
	if _, ok := FromEnv("http://hook", "", "").(*WebhookNotifier); !ok {
		t.Error("webhook URL alone should yield WebhookNotifier")
	}
	if _, ok := FromEnv("http://hook", "tok", "chat").(*Multi); !ok {
		t.Error("two backends should yield Multi")
	}
}
