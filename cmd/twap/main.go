// cmd/twap slices a large order into equal child orders and feeds them to a
// running desk at a fixed interval, so big paper positions build up without
// a single market-moving fill.
//
// Usage:
//
//	go run ./cmd/twap --symbol=RELIANCE.NS --side=BUY --qty=500 --slices=10 --interval=30s
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

type orderResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID string `json:"order_id"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	// Flags
	baseURL := flag.String("api", "http://localhost:8000", "Desk base URL")
	symbol := flag.String("symbol", "", "Symbol to trade (required)")
	side := flag.String("side", "BUY", "BUY or SELL")
	product := flag.String("product", "MIS", "MIS (intraday) or CNC (delivery)")
	qty := flag.Int64("qty", 0, "Total quantity (required)")
	slices := flag.Int64("slices", 10, "Number of child orders")
	interval := flag.Duration("interval", 30*time.Second, "Delay between child orders")
	flag.Parse()

	if *symbol == "" || *qty <= 0 {
		flag.Usage()
		log.Fatal("[twap] --symbol and --qty are required")
	}
	if *slices <= 0 || *slices > *qty {
		log.Fatalf("[twap] invalid --slices=%d for qty=%d", *slices, *qty)
	}
	sideU := strings.ToUpper(*side)
	if sideU != "BUY" && sideU != "SELL" {
		log.Fatalf("[twap] invalid --side=%q", *side)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	client := &http.Client{Timeout: 10 * time.Second}

	// Equal slices, remainder on the last child.
	child := *qty / *slices
	last := child + *qty%*slices

	var filled, spent int64
	var notional float64
	for i := int64(1); i <= *slices; i++ {
		q := child
		if i == *slices {
			q = last
		}

		price, err := fetchPrice(client, *baseURL, *symbol)
		if err != nil {
			log.Fatalf("[twap] quote fetch failed: %v", err)
		}

		id, err := placeOrder(client, *baseURL, *symbol, sideU, *product, q, price)
		if err != nil {
			log.Fatalf("[twap] slice %d/%d failed: %v", i, *slices, err)
		}
		filled += q
		spent++
		notional += price * float64(q)
		log.Printf("[twap] slice %d/%d: %s %d %s @ %.2f (%s)", i, *slices, sideU, q, *symbol, price, id)

		if i == *slices {
			break
		}
		select {
		case <-time.After(*interval):
		case <-sigCh:
			log.Printf("[twap] interrupted after %d slices", i)
			printSummary(sideU, *symbol, filled, spent, notional)
			return
		}
	}

	printSummary(sideU, *symbol, filled, spent, notional)
}

// fetchPrice pulls the current reference price from /api/batch_quotes.
func fetchPrice(client *http.Client, baseURL, symbol string) (float64, error) {
	resp, err := client.Get(fmt.Sprintf("%s/api/batch_quotes?symbols=%s", baseURL, symbol))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote status %d", resp.StatusCode)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	var q struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(body[symbol], &q); err != nil {
		return 0, fmt.Errorf("no quote for %s", symbol)
	}
	if q.Price <= 0 {
		return 0, fmt.Errorf("no reference price for %s", symbol)
	}
	return q.Price, nil
}

// placeOrder POSTs one child order and returns its order ID.
func placeOrder(client *http.Client, baseURL, symbol, side, product string, qty int64, price float64) (string, error) {
	payload, _ := json.Marshal(map[string]interface{}{
		"symbol":  symbol,
		"side":    side,
		"product": product,
		"qty":     qty,
		"price":   price,
	})
	resp, err := client.Post(baseURL+"/api/place_order", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed orderResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK || parsed.Status != "success" {
		return "", fmt.Errorf("rejected: %s", parsed.Message)
	}
	return parsed.OrderID, nil
}

func printSummary(side, symbol string, filled, orders int64, notional float64) {
	avg := 0.0
	if filled > 0 {
		avg = notional / float64(filled)
	}
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║          TWAP COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  %-4s %-31s ║\n", side, symbol)
	fmt.Printf("║  Filled qty:    %-20d ║\n", filled)
	fmt.Printf("║  Child orders:  %-20d ║\n", orders)
	fmt.Printf("║  Avg price:     %-20.2f ║\n", avg)
	fmt.Println("╚══════════════════════════════════════╝")
}
