package gateway

import (
	"encoding/json"
	"net/http"
)

// Request bodies for the REST surface.

type placeOrderReq struct {
	Symbol  string  `json:"symbol"`
	Side    string  `json:"side"`
	Product string  `json:"product"`
	Qty     int64   `json:"qty"`
	Price   float64 `json:"price"`
}

type squareOffReq struct {
	Symbol string `json:"symbol"`
}

type addFundsReq struct {
	Amount float64 `json:"amount"`
}

type basketReq struct {
	BasketID string `json:"basket_id"`
}

type nameReq struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyKeyReq struct {
	Key  string `json:"key"`
	Code string `json:"code"`
}

// writeJSON writes v with the given HTTP status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	json.NewEncoder(w).Encode(v)
}

// ok writes a success envelope with extra fields merged in.
func ok(w http.ResponseWriter, extra map[string]interface{}) {
	body := map[string]interface{}{"status": "success"}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// fail writes an error envelope.
func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}

// decode parses a JSON body, replying 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
