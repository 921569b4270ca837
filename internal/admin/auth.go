// Package admin guards the admin dashboard entry point.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Verifier decides whether an email/password pair may enter the admin area.
type Verifier interface {
	Verify(ctx context.Context, email, password string) (bool, error)
}

// StaticVerifier checks against a single configured credential. The password
// is only ever held as a bcrypt hash.
type StaticVerifier struct {
	email []byte
	hash  []byte
}

// NewStaticVerifier accepts either a plaintext password, which is hashed
// here, or an existing bcrypt hash. passwordHash wins when both are set.
func NewStaticVerifier(email, password, passwordHash string) (*StaticVerifier, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("admin email is required")
	}

	var hash []byte
	switch {
	case passwordHash != "":
		if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		hash = []byte(passwordHash)
	case password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = h
	default:
		return nil, errors.New("admin password or password hash is required")
	}

	return &StaticVerifier{email: []byte(email), hash: hash}, nil
}

func (v *StaticVerifier) Verify(_ context.Context, email, password string) (bool, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(email)), v.email) == 1

	err := bcrypt.CompareHashAndPassword(v.hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return emailOK, nil
}
