package gateway

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"papertrade-systemv1/internal/model"

	"github.com/shopspring/decimal"
)

// testClient registers a pump-less client so Broadcast can be exercised
// without a live websocket.
func testClient(h *Hub) *Client {
	c := &Client{send: make(chan []byte, 16), hub: h}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

func tick(symbol string, price int64) model.Quote {
	return model.Quote{Symbol: symbol, Price: decimal.NewFromInt(price), TS: time.Now()}
}

func TestBroadcastReachesClients(t *testing.T) {
	h := NewHub(100, nil)
	c1 := testClient(h)
	c2 := testClient(h)

	h.Broadcast(tick("TCS.NS", 3240))

	for i, c := range []*Client{c1, c2} {
		select {
		case raw := <-c.send:
			var env struct {
				Type string      `json:"type"`
				Seq  int64       `json:"seq"`
				Data model.Quote `json:"data"`
			}
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("client %d envelope decode: %v (%s)", i, err, raw)
			}
			if env.Type != "quote" || env.Seq != 1 || env.Data.Symbol != "TCS.NS" {
				t.Errorf("client %d envelope = %+v", i, env)
			}
		default:
			t.Fatalf("client %d received nothing", i)
		}
	}
}

func TestBroadcastDropsForSlowClient(t *testing.T) {
	h := NewHub(100, nil)
	c := &Client{send: make(chan []byte, 1), hub: h}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	h.Broadcast(tick("TCS.NS", 1))
	h.Broadcast(tick("TCS.NS", 2)) // channel full, frame dropped

	if got := len(c.send); got != 1 {
		t.Errorf("queued frames = %d, want 1", got)
	}
	// The hub itself is unaffected.
	if h.replay.Len() != 2 {
		t.Errorf("replay len = %d, want 2", h.replay.Len())
	}
}

func TestInitialStateReplaysGap(t *testing.T) {
	h := NewHub(100, nil)

	h.Broadcast(tick("TCS.NS", 1))
	h.Broadcast(tick("INFY.NS", 2))
	h.Broadcast(tick("SBIN.NS", 3))

	c := testClient(h)
	h.sendInitialState(c, 1) // saw seq 1, missed 2 and 3

	if got := len(c.send); got != 2 {
		t.Fatalf("replayed frames = %d, want 2", got)
	}
}

func TestInitialStateLatestPerSymbol(t *testing.T) {
	h := NewHub(100, nil)

	h.Broadcast(tick("TCS.NS", 1))
	h.Broadcast(tick("TCS.NS", 2))
	h.Broadcast(tick("INFY.NS", 3))

	c := testClient(h)
	h.sendInitialState(c, 0) // fresh client: latest per symbol only

	if got := len(c.send); got != 2 {
		t.Errorf("initial frames = %d, want 2 (one per symbol)", got)
	}
}

func TestBroadcastEventSharesSeqSpace(t *testing.T) {
	h := NewHub(100, nil)
	c := testClient(h)

	h.Broadcast(tick("TCS.NS", 1))
	h.BroadcastEvent("order", model.Order{OrderID: "PAPER-1", Symbol: "TCS.NS"})

	<-c.send // quote
	raw := <-c.send
	var env struct {
		Type string      `json:"type"`
		Seq  int64       `json:"seq"`
		Data model.Order `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope decode: %v (%s)", err, raw)
	}
	if env.Type != "order" || env.Seq != 2 || env.Data.OrderID != "PAPER-1" {
		t.Errorf("envelope = %+v", env)
	}
	// Events enter the replay buffer so reconnect gap-fill covers them.
	if got := h.replay.After(1); len(got) != 1 {
		t.Errorf("replayed events = %d, want 1", len(got))
	}
}

func TestRemoveClient(t *testing.T) {
	h := NewHub(100, nil)
	c := testClient(h)

	h.RemoveClient(c)
	if h.ClientCount() != 0 {
		t.Errorf("count = %d, want 0", h.ClientCount())
	}
	// Removing twice must not panic on the closed channel.
	h.RemoveClient(c)
}

func TestConcurrentBroadcastsKeepReplayOrdered(t *testing.T) {
	h := NewHub(1000, nil)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := int64(1); i <= 50; i++ {
				h.Broadcast(tick("TCS.NS", i))
			}
		}()
	}
	wg.Wait()

	entries := h.replay.After(0)
	if len(entries) != 400 {
		t.Fatalf("replay len = %d, want 400", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq != entries[i-1].Seq+1 {
			t.Fatalf("replay out of order at %d: %d after %d", i, entries[i].Seq, entries[i-1].Seq)
		}
	}
}

func TestReplayBufferAfter(t *testing.T) {
	rb := NewReplayBuffer(5)
	for i := int64(1); i <= 8; i++ {
		rb.Push(i, []byte("msg"))
	}

	// Capacity 5: seqs 4..8 survive.
	if rb.Len() != 5 {
		t.Fatalf("len = %d, want 5", rb.Len())
	}
	got := rb.After(5)
	if len(got) != 3 || got[0].Seq != 6 || got[2].Seq != 8 {
		t.Errorf("After(5) = %+v", got)
	}
	if len(rb.After(100)) != 0 {
		t.Error("After(100) should be empty")
	}
}
