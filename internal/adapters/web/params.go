package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// parseDecimalField parses a decimal string field, treating "" as zero.
// Writes a 400 response and returns ok=false on malformed input.
func parseDecimalField(w http.ResponseWriter, r *http.Request, value, field string) (decimal.Decimal, bool) {
	if value == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		writeError(w, r, "invalid "+field+": "+value, "BAD_REQUEST", http.StatusBadRequest)
		return decimal.Zero, false
	}
	return d, true
}

// queryInt reads an integer query parameter, returning 0 when absent or
// malformed.
func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// queryDate reads a YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string) (time.Time, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// pathInt reads an integer URL parameter; writes 400 and returns ok=false
// when it is not a number.
func pathInt(w http.ResponseWriter, r *http.Request, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, "invalid id: "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
