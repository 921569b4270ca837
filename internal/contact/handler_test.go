package contact

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_HandleSubmit(t *testing.T) {
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "all fields present",
			body:        `{"name":"Asha","email":"asha@example.com","message":"Loved the tacos"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Message received successfully! We will get back to you soon.",
		},
		{
			name:        "missing message",
			body:        `{"name":"Asha","email":"asha@example.com"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "All fields are required",
		},
		{
			name:        "blank name",
			body:        `{"name":"   ","email":"asha@example.com","message":"hi"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "All fields are required",
		},
		{
			name:        "not json",
			body:        `name=Asha`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.HandleSubmit(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, resp.Message)
			}
			if resp.Success != (tt.wantStatus == http.StatusOK) {
				t.Errorf("unexpected success flag %v", resp.Success)
			}
		})
	}
}
