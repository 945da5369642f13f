package httpclient

import (
	"context"
	"net/http"
)

// Request describes a single outbound call.
type Request struct {
	Method   string
	URL      string
	Headers  map[string]string
	Query    map[string]string
	Body     any
	Username string
	Password string
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
