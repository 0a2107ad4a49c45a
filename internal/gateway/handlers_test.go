package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"papertrade-systemv1/internal/auth"
	"papertrade-systemv1/internal/invest"
	"papertrade-systemv1/internal/ledger"

	"github.com/shopspring/decimal"
)

func newTestServer() (*Server, *http.ServeMux) {
	l := ledger.New(ledger.Config{OpeningBalance: decimal.NewFromInt(1_000_000)})
	s := &Server{
		Ledger: l,
		Invest: invest.NewService(l),
		Auth:   auth.NewService(),
		Hub:    NewHub(100, nil),
		Start:  time.Now(),
	}
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var parsed map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &parsed)
	return rec, parsed
}

func TestPlaceOrderEndpoint(t *testing.T) {
	_, mux := newTestServer()

	rec, resp := doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "TCS.NS", "side": "BUY", "product": "CNC", "qty": 10, "price": 100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if resp["status"] != "success" || resp["order_id"] != "PAPER-1" {
		t.Errorf("resp = %v", resp)
	}

	// Funds reflect the debit.
	_, funds := doJSON(t, mux, "GET", "/api/funds", nil)
	if funds["funds"].(float64) != 999_000 {
		t.Errorf("funds = %v, want 999000", funds["funds"])
	}
}

func TestPlaceOrderRejections(t *testing.T) {
	_, mux := newTestServer()

	rec, resp := doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "TCS.NS", "side": "BUY", "product": "MIS", "qty": 10_000, "price": 5_000,
	})
	if rec.Code != http.StatusBadRequest || resp["status"] != "error" {
		t.Errorf("margin rejection: code=%d resp=%v", rec.Code, resp)
	}

	rec, _ = doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "TCS.NS", "side": "BUY", "product": "GTT", "qty": 1, "price": 10,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown product: code = %d", rec.Code)
	}

	rec, _ = doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "abc", "side": "BUY", "product": "MIS", "qty": 1, "price": 10,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad symbol: code = %d", rec.Code)
	}
}

func TestSquareOffEndpoint(t *testing.T) {
	_, mux := newTestServer()

	rec, _ := doJSON(t, mux, "POST", "/api/square_off", map[string]interface{}{"symbol": "TCS.NS"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("flat square-off code = %d, want 404", rec.Code)
	}

	doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "TCS.NS", "side": "BUY", "product": "MIS", "qty": 5, "price": 100,
	})
	rec, resp := doJSON(t, mux, "POST", "/api/square_off", map[string]interface{}{"symbol": "TCS.NS"})
	if rec.Code != http.StatusOK || resp["status"] != "success" {
		t.Errorf("square-off: code=%d resp=%v", rec.Code, resp)
	}
}

func TestAddFundsAndHistory(t *testing.T) {
	_, mux := newTestServer()

	rec, resp := doJSON(t, mux, "POST", "/api/add_funds", map[string]interface{}{"amount": 50_000})
	if rec.Code != http.StatusOK || resp["new_balance"].(float64) != 1_050_000 {
		t.Errorf("add_funds: code=%d resp=%v", rec.Code, resp)
	}

	rec, _ = doJSON(t, mux, "POST", "/api/add_funds", map[string]interface{}{"amount": -5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative deposit code = %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/funds/history", nil)
	recH := httptest.NewRecorder()
	mux.ServeHTTP(recH, req)
	var rows []map[string]interface{}
	if err := json.Unmarshal(recH.Body.Bytes(), &rows); err != nil {
		t.Fatalf("history decode: %v (%s)", err, recH.Body)
	}
	// Newest first: deposit, welcome bonus, account opened.
	if len(rows) != 3 || rows[0]["desc"] != "Funds Added via UPI" {
		t.Errorf("history = %v", rows)
	}
}

func TestPortfolioEndpoint(t *testing.T) {
	_, mux := newTestServer()

	doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "INFY.NS", "side": "BUY", "product": "CNC", "qty": 10, "price": 100,
	})

	rec, resp := doJSON(t, mux, "GET", "/api/portfolio", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("portfolio status = %d", rec.Code)
	}
	holdings := resp["holdings"].([]interface{})
	if len(holdings) != 1 {
		t.Fatalf("holdings = %v", holdings)
	}
	// No price source wired: valued at cost, total value = funds + invested.
	if resp["total_value"].(float64) != 1_000_000 {
		t.Errorf("total_value = %v, want 1000000", resp["total_value"])
	}
	orders := resp["orders"].([]interface{})
	if len(orders) != 1 {
		t.Errorf("orders = %v", orders)
	}
}

func TestOrdersEndpoint(t *testing.T) {
	_, mux := newTestServer()

	doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "TCS.NS", "side": "BUY", "product": "MIS", "qty": 1, "price": 10,
	})
	doJSON(t, mux, "POST", "/api/place_order", map[string]interface{}{
		"symbol": "INFY.NS", "side": "BUY", "product": "MIS", "qty": 1, "price": 10,
	})

	req := httptest.NewRequest("GET", "/api/orders", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var rows []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("orders decode: %v (%s)", err, rec.Body)
	}
	// Newest first.
	if len(rows) != 2 || rows[0]["order_id"] != "PAPER-2" {
		t.Errorf("orders = %v", rows)
	}
}

func TestInvestEndpoints(t *testing.T) {
	_, mux := newTestServer()

	rec, resp := doJSON(t, mux, "POST", "/api/place_basket", map[string]interface{}{"basket_id": "b1"})
	if rec.Code != http.StatusOK || resp["message"] != "Successfully invested in IT Giants!" {
		t.Errorf("place_basket: code=%d resp=%v", rec.Code, resp)
	}

	rec, _ = doJSON(t, mux, "POST", "/api/place_basket", map[string]interface{}{"basket_id": "zzz"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown basket code = %d", rec.Code)
	}

	rec, resp = doJSON(t, mux, "POST", "/api/invest/mf/sip", map[string]interface{}{"name": "Axis Bluechip Fund"})
	if rec.Code != http.StatusOK || resp["status"] != "success" {
		t.Errorf("sip: code=%d resp=%v", rec.Code, resp)
	}

	rec, resp = doJSON(t, mux, "POST", "/api/invest/bond/buy", map[string]interface{}{
		"name": "7.54% GS 2036", "price": 100.25,
	})
	if rec.Code != http.StatusOK || resp["status"] != "success" {
		t.Errorf("bond buy: code=%d resp=%v", rec.Code, resp)
	}
}

func TestBatchQuotesUnknownSymbolDefault(t *testing.T) {
	_, mux := newTestServer()

	req := httptest.NewRequest("GET", "/api/batch_quotes?symbols=ZZZZZ.NS", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body)
	}
	var q map[string]float64
	if err := json.Unmarshal(resp["ZZZZZ.NS"], &q); err != nil {
		t.Fatalf("missing quote: %s", rec.Body)
	}
	// Anchored at the 500 default with up to ±1.5% day change.
	if q["price"] < 490 || q["price"] > 510 {
		t.Errorf("price = %v, want ~500", q["price"])
	}
	if q["change"] < -1.5 || q["change"] > 1.5 {
		t.Errorf("change = %v, want within ±1.5", q["change"])
	}
}

func TestCatalogEndpoints(t *testing.T) {
	_, mux := newTestServer()
	for _, path := range []string{"/api/baskets", "/api/invest/ipos", "/api/invest/mutual_funds", "/api/invest/bonds", "/api/screener"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
		var rows []interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil || len(rows) == 0 {
			t.Errorf("%s body = %s", path, rec.Body)
		}
	}
}

func TestKeyEndpoints(t *testing.T) {
	s, mux := newTestServer()

	rec, resp := doJSON(t, mux, "POST", "/api/generate_key", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate_key status = %d", rec.Code)
	}
	keyID := resp["key"].(string)

	code, err := s.Auth.CurrentCode(keyID)
	if err != nil {
		t.Fatalf("CurrentCode: %v", err)
	}
	rec, _ = doJSON(t, mux, "POST", "/api/verify_key", map[string]interface{}{"key": keyID, "code": code})
	if rec.Code != http.StatusOK {
		t.Errorf("verify_key status = %d", rec.Code)
	}

	rec, _ = doJSON(t, mux, "POST", "/api/verify_key", map[string]interface{}{"key": keyID, "code": "000000"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad code status = %d", rec.Code)
	}
}

func TestAuthEndpoints(t *testing.T) {
	_, mux := newTestServer()

	rec, resp := doJSON(t, mux, "POST", "/api/auth/login", map[string]interface{}{
		"email": "trader@example.com", "password": "pw",
	})
	if rec.Code != http.StatusOK || resp["user"] == nil {
		t.Errorf("login: code=%d resp=%v", rec.Code, resp)
	}

	rec, _ = doJSON(t, mux, "POST", "/api/auth/login", map[string]interface{}{"email": "", "password": ""})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("empty login code = %d", rec.Code)
	}
}

func TestMarketStatusAndHealth(t *testing.T) {
	_, mux := newTestServer()

	rec, resp := doJSON(t, mux, "GET", "/api/market_status", nil)
	if rec.Code != http.StatusOK || resp["status"] == nil || resp["next_squareoff"] == nil {
		t.Errorf("market_status: code=%d resp=%v", rec.Code, resp)
	}

	rec, resp = doJSON(t, mux, "GET", "/health", nil)
	if rec.Code != http.StatusOK || resp["status"] != "ok" {
		t.Errorf("health: code=%d resp=%v", rec.Code, resp)
	}
}
