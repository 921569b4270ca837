package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// DashboardPath is where a successful login sends the browser.
const DashboardPath = "/admin.html"

type Handler struct {
	verifier Verifier
	logger   *slog.Logger
}

func NewHandler(verifier Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		logger:   logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, loginResponse{Message: "invalid request body"})
		return
	}

	ok, err := h.verifier.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("failed to verify admin credentials", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, loginResponse{Message: "internal server error"})
		return
	}
	if !ok {
		h.logger.Warn("admin login rejected", "remote_addr", r.RemoteAddr)
		h.writeJSON(w, http.StatusUnauthorized, loginResponse{Message: "Invalid credentials"})
		return
	}

	h.logger.Info("admin logged in")
	h.writeJSON(w, http.StatusOK, loginResponse{
		Success:  true,
		Message:  "Login successful",
		Redirect: DashboardPath,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
