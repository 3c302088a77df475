// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"strings"
	"testing"

	"github.com/ManuGH/kiosk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_SHA256(t *testing.T) {
	c := NewCredential(secretHash)
	assert.True(t, c.Verify("secret"))
	assert.False(t, c.Verify("Secret"))
	assert.False(t, c.Verify(""))

	upper := NewCredential(strings.ToUpper(secretHash) + "\n")
	assert.True(t, upper.Verify("secret"))
}

func TestCredential_Bcrypt(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$2"))

	c := NewCredential(hash)
	assert.True(t, c.Verify("hunter2"))
	assert.False(t, c.Verify("hunter3"))
}

func TestCredential_EmptyHashNeverVerifies(t *testing.T) {
	c := NewCredential("  ")
	assert.False(t, c.Verify(""))
	assert.False(t, c.Verify("anything"))
}

func TestCheckPIN(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		entered string
		want    bool
	}{
		{"match", "1234", "1234", true},
		{"trimmed entry", "1234", " 1234\n", true},
		{"mismatch", "1234", "4321", false},
		{"prefix", "1234", "123", false},
		{"sentinel accepts empty", config.NoPINSentinel, "", true},
		{"sentinel accepts anything", config.NoPINSentinel, "9999", true},
		{"unset rejects empty", "", "", false},
		{"unset rejects value", "", "1234", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPIN(tt.stored, tt.entered))
		})
	}
}
