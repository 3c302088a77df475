// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/ManuGH/kiosk/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// Credential verifies the lockout password against a bcrypt or hex SHA-256 hash.
type Credential struct {
	hash   string
	bcrypt bool
}

// NewCredential wraps a stored hash. An empty hash never verifies.
func NewCredential(hash string) Credential {
	hash = strings.TrimSpace(hash)
	return Credential{hash: hash, bcrypt: strings.HasPrefix(hash, "$2")}
}

// Verify reports whether password matches the stored hash.
func (c Credential) Verify(password string) bool {
	if c.hash == "" {
		return false
	}
	if c.bcrypt {
		return bcrypt.CompareHashAndPassword([]byte(c.hash), []byte(password)) == nil
	}
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(c.hash))) == 1
}

// HashPassword returns a bcrypt hash suitable for lockout.passwordHash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// checkPIN compares an entered PIN with the stored one. The no-pin sentinel
// accepts anything and an empty stored PIN accepts nothing.
func checkPIN(stored, entered string) bool {
	switch stored {
	case config.NoPINSentinel:
		return true
	case "":
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(entered))) == 1
}
