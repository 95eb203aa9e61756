package model

import (
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// CallbackRecord is an accepted provider webhook, stored as received.
type CallbackRecord struct {
	ID         string          `db:"id" json:"id"`
	Body       json.RawMessage `db:"body" json:"body"`
	Headers    Headers         `db:"headers" json:"headers"`
	ReceivedAt time.Time       `db:"received_at" json:"receivedAt"`
}

// Headers flattens multi-value request headers into one string per name.
type Headers map[string]string

func HeadersFromHTTP(h http.Header) Headers {
	out := make(Headers, len(h))
	for name, values := range h {
		out[strings.ToLower(name)] = strings.Join(values, ", ")
	}
	return out
}

func (h Headers) Value() (driver.Value, error) {
	if h == nil {
		return []byte("{}"), nil
	}
	return jsonValue(map[string]string(h))
}

func (h *Headers) Scan(src any) error {
	return jsonScan(src, (*map[string]string)(h))
}
