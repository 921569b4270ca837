// Package contact accepts messages from the storefront contact form.
package contact

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&msg); err != nil {
		h.writeJSON(w, http.StatusBadRequest, response{Message: "invalid request body"})
		return
	}

	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		h.writeJSON(w, http.StatusBadRequest, response{Message: "All fields are required"})
		return
	}

	h.logger.Info("contact message received", "name", msg.Name, "email", msg.Email, "length", len(msg.Message))
	h.writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Message received successfully! We will get back to you soon.",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
