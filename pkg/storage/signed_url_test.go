package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("inc-1", "guardian/org-1/Reporte-Incidente-INC-2025-0001.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, path, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "inc-1", id)
	require.Equal(t, "guardian/org-1/Reporte-Incidente-INC-2025-0001.pdf", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("inc-1", "guardian/file.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, _, err = signer.Parse(token)
	require.EqualError(t, err, "token expired")
}

func TestSignedURLSignerTampered(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("inc-1", "guardian/file.pdf")
	require.NoError(t, err)

	tampered := strings.Replace(token, "inc-1", "inc-2", 1)
	_, _, _, err = signer.Parse(tampered)
	require.EqualError(t, err, "invalid token signature")

	other := NewSignedURLSigner("other", time.Hour)
	_, _, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLSignerRequiresSecret(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Generate("inc-1", "a.pdf")
	require.Error(t, err)
}
