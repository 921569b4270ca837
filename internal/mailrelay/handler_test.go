package mailrelay

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newMux(capacity int) *http.ServeMux {
	h := NewHandler(capacity, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /send", h.HandleSend)
	mux.HandleFunc("GET /messages", h.HandleList)
	return mux
}

func send(t *testing.T, mux http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func list(t *testing.T, mux http.Handler) []Message {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var out []Message
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode messages: %v", err)
	}
	return out
}

func TestHandler_HandleSend(t *testing.T) {
	t.Run("accepts and retains message", func(t *testing.T) {
		mux := newMux(10)
		rec := send(t, mux, `{"from":"orders@tacotown.in","to":"asha@example.com","subject":"Order confirmed: ORDER_1","body":"hi"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp sendResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Status != "sent" || resp.ID == "" {
			t.Errorf("unexpected response: %+v", resp)
		}

		msgs := list(t, mux)
		if len(msgs) != 1 || msgs[0].ID != resp.ID || msgs[0].To != "asha@example.com" {
			t.Errorf("unexpected outbox: %+v", msgs)
		}
	})

	t.Run("rejects bad requests", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want int
		}{
			{"malformed", `{`, http.StatusBadRequest},
			{"missing recipient", `{"subject":"x"}`, http.StatusUnprocessableEntity},
			{"invalid recipient", `{"to":"nobody","subject":"x"}`, http.StatusUnprocessableEntity},
			{"missing subject", `{"to":"a@b.com"}`, http.StatusUnprocessableEntity},
			{"oversized body", `{"to":"a@b.com","subject":"x","body":"` + strings.Repeat("a", maxBodyBytes) + `"}`, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mux := newMux(10)
				if rec := send(t, mux, tt.body); rec.Code != tt.want {
					t.Errorf("expected status %d, got %d", tt.want, rec.Code)
				}
				if n := len(list(t, mux)); n != 0 {
					t.Errorf("expected empty outbox, got %d", n)
				}
			})
		}
	})

	t.Run("drops oldest beyond capacity", func(t *testing.T) {
		mux := newMux(2)
		for i := 1; i <= 3; i++ {
			send(t, mux, fmt.Sprintf(`{"to":"a@b.com","subject":"msg %d"}`, i))
		}

		msgs := list(t, mux)
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}
		if msgs[0].Subject != "msg 3" || msgs[1].Subject != "msg 2" {
			t.Errorf("expected newest first, got %q, %q", msgs[0].Subject, msgs[1].Subject)
		}
	})
}
