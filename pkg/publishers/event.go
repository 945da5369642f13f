package publishers

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Event describes the outcome of one Spreedly call, published downstream.
type Event struct {
	ID         string    `json:"id"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Success    bool      `json:"success"`
	Errors     string    `json:"errors,omitempty"`
	Token      string    `json:"token,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event with a fresh ULID and the current time.
func NewEvent(method, endpoint string, status int, success bool) Event {
	return Event{
		ID:         ulid.Make().String(),
		Method:     method,
		Endpoint:   endpoint,
		StatusCode: status,
		Success:    success,
		OccurredAt: time.Now().UTC(),
	}
}
