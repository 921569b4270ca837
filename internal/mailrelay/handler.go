// Package mailrelay is a development stand-in for an outbound mail provider.
// It accepts messages from the notifier, logs them and keeps the most recent
// ones in memory for inspection.
package mailrelay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCapacity = 100
	maxBodyBytes    = 256 << 10
)

type Message struct {
	ID      string    `json:"id"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sentAt"`
}

type Handler struct {
	mu       sync.Mutex
	outbox   []Message
	capacity int
	logger   *slog.Logger
}

// NewHandler keeps at most capacity messages; older ones are dropped first.
func NewHandler(capacity int, logger *slog.Logger) *Handler {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Handler{
		capacity: capacity,
		logger:   logger,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.To) == "" || !strings.Contains(req.To, "@") {
		h.writeError(w, http.StatusUnprocessableEntity, "recipient address is required")
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "subject is required")
		return
	}

	msg := Message{
		ID:      uuid.NewString(),
		From:    req.From,
		To:      strings.TrimSpace(req.To),
		Subject: req.Subject,
		Body:    req.Body,
		SentAt:  time.Now().UTC(),
	}

	h.mu.Lock()
	h.outbox = append(h.outbox, msg)
	if over := len(h.outbox) - h.capacity; over > 0 {
		h.outbox = append([]Message(nil), h.outbox[over:]...)
	}
	h.mu.Unlock()

	h.logger.Info("email sent", "id", msg.ID, "to", msg.To, "subject", msg.Subject)

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent", ID: msg.ID})
}

// HandleList returns the retained messages, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	out := make([]Message, len(h.outbox))
	for i, m := range h.outbox {
		out[len(out)-1-i] = m
	}
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
