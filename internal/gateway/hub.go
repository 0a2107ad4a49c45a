// Package gateway is the desk's web surface: the REST API the trading
// frontend calls and the WebSocket hub that streams live quotes to it.
package gateway

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"papertrade-systemv1/internal/metrics"
	"papertrade-systemv1/internal/model"
)

// Hub fans live quotes out to connected WebSocket clients. It keeps a
// replay buffer of recent envelopes so reconnecting clients can backfill
// the gap, and the latest envelope per symbol for initial state.
type Hub struct {
	prom *metrics.Metrics

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string][]byte // symbol -> last envelope sent
	seq     int64
	replay  *ReplayBuffer
}

// NewHub creates a hub with a replay buffer of the given capacity.
func NewHub(replayCap int, m *metrics.Metrics) *Hub {
	return &Hub{
		prom:    m,
		clients: make(map[*Client]bool),
		latest:  make(map[string][]byte),
		replay:  NewReplayBuffer(replayCap),
	}
}

// Broadcast envelopes a quote and sends it to every connected client.
// Slow clients lose frames rather than slowing the fanout.
//
// The envelope is hand-built: one frame per quote across every client makes
// json.Marshal measurable on the hot path.
func (h *Hub) Broadcast(q model.Quote) {
	data := q.JSON()

	h.mu.Lock()
	h.seq++
	seq := h.seq

	buf := make([]byte, 0, len(data)+64)
	buf = append(buf, `{"type":"quote","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"data":`...)
	buf = append(buf, data...)
	buf = append(buf, '}')

	h.latest[q.Symbol] = buf
	// Push while still holding the lock so replay order matches seq order
	// under concurrent broadcasts.
	h.replay.Push(seq, buf)
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- buf:
		default:
			if h.prom != nil {
				h.prom.WSDropsTotal.Inc()
			}
		}
	}
}

// BroadcastEvent envelopes an arbitrary payload (order fills, portfolio
// summaries) under the given type and fans it out like a quote. Events
// share the quote seq space so reconnect replay covers them too.
func (h *Hub) BroadcastEvent(typ string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[gateway] event %s marshal: %v", typ, err)
		return
	}

	h.mu.Lock()
	h.seq++
	seq := h.seq

	buf := make([]byte, 0, len(data)+len(typ)+64)
	buf = append(buf, `{"type":"`...)
	buf = append(buf, typ...)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"data":`...)
	buf = append(buf, data...)
	buf = append(buf, '}')

	h.replay.Push(seq, buf)
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- buf:
		default:
			if h.prom != nil {
				h.prom.WSDropsTotal.Inc()
			}
		}
	}
}

// AddClient registers a client and starts its pumps.
func (h *Hub) AddClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	if h.prom != nil {
		h.prom.WSClients.Set(float64(n))
	}

	go c.writePump()
	go c.readPump()
}

// RemoveClient unregisters a client and closes its send channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if h.prom != nil {
		h.prom.WSClients.Set(float64(n))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendInitialState pushes either the gap since lastSeq (when the replay
// buffer still covers it) or the latest envelope per symbol.
func (h *Hub) sendInitialState(c *Client, lastSeq int64) {
	if lastSeq > 0 {
		entries := h.replay.After(lastSeq)
		if len(entries) > 0 {
			for _, e := range entries {
				select {
				case c.send <- e.Data:
					if h.prom != nil {
						h.prom.ReplayServed.Inc()
					}
				default:
					return
				}
			}
			return
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, buf := range h.latest {
		select {
		case c.send <- buf:
		default:
			return
		}
	}
}

// pingInterval and friends are shared by the client pumps.
const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
)
