package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientSendsAuthQueryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "k" || pass != "s" {
			t.Fatalf("unexpected basic auth %q/%q ok=%v", user, pass, ok)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Fatalf("unexpected query param page=%q", got)
		}
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload["hello"] != "world" {
			t.Fatalf("unexpected body %#v", payload)
		}
		w.Header().Set("X-Reply", "1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Do(context.Background(), Request{
		Method:   http.MethodPost,
		URL:      srv.URL,
		Headers:  map[string]string{"Content-Type": "application/json"},
		Query:    map[string]string{"page": "2"},
		Body:     map[string]string{"hello": "world"},
		Username: "k",
		Password: "s",
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
	if string(resp.Body()) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", resp.Body())
	}
	if resp.Header().Get("X-Reply") != "1" {
		t.Fatalf("missing response header")
	}
}

func TestRestyClientDoesNotErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Do(context.Background(), Request{URL: srv.URL})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", resp.StatusCode())
	}
}
