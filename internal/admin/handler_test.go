package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewStaticVerifier(t *testing.T) {
	t.Run("requires email", func(t *testing.T) {
		if _, err := NewStaticVerifier(" ", "secret", ""); err == nil {
			t.Error("expected error for empty email")
		}
	})

	t.Run("requires a password", func(t *testing.T) {
		if _, err := NewStaticVerifier("admin@tacotown.test", "", ""); err == nil {
			t.Error("expected error for missing password")
		}
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		if _, err := NewStaticVerifier("admin@tacotown.test", "", "not-a-hash"); err == nil {
			t.Error("expected error for malformed hash")
		}
	})

	t.Run("accepts precomputed hash", func(t *testing.T) {
		hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash: %v", err)
		}
		v, err := NewStaticVerifier("admin@tacotown.test", "ignored", string(hash))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ok, err := v.Verify(context.Background(), "admin@tacotown.test", "s3cret")
		if err != nil || !ok {
			t.Errorf("expected valid credentials, got ok=%v err=%v", ok, err)
		}
	})
}

func TestStaticVerifier_Verify(t *testing.T) {
	v, err := NewStaticVerifier("admin@tacotown.test", "s3cret", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     bool
	}{
		{"matching", "admin@tacotown.test", "s3cret", true},
		{"surrounding spaces in email", " admin@tacotown.test ", "s3cret", true},
		{"wrong password", "admin@tacotown.test", "guess", false},
		{"wrong email", "someone@tacotown.test", "s3cret", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(context.Background(), tt.email, tt.password)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

type verifierFunc func(email, password string) (bool, error)

func (f verifierFunc) Verify(_ context.Context, email, password string) (bool, error) {
	return f(email, password)
}

func TestHandler_HandleLogin(t *testing.T) {
	verifier := verifierFunc(func(email, password string) (bool, error) {
		if email == "broken" {
			return false, errors.New("verifier down")
		}
		return email == "admin@tacotown.test" && password == "s3cret", nil
	})
	handler := NewHandler(verifier, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantRedirect string
	}{
		{"valid credentials", `{"email":"admin@tacotown.test","password":"s3cret"}`, http.StatusOK, DashboardPath},
		{"invalid credentials", `{"email":"admin@tacotown.test","password":"nope"}`, http.StatusUnauthorized, ""},
		{"malformed body", `{"email":`, http.StatusBadRequest, ""},
		{"verifier failure", `{"email":"broken","password":"x"}`, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.HandleLogin(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			var resp loginResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Success != (tt.wantStatus == http.StatusOK) {
				t.Errorf("unexpected success flag: %+v", resp)
			}
			if resp.Redirect != tt.wantRedirect {
				t.Errorf("expected redirect %q, got %q", tt.wantRedirect, resp.Redirect)
			}
		})
	}
}
