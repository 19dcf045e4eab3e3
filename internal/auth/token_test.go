package auth_test

import (
	"testing"
	"time"

	"github.com/accountsvc/apiserver/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueVerifyRoundtrip(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Minute)

	token, err := tokens.Issue("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)
}

func TestTokenVerifyExpired(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Millisecond)

	token, err := tokens.Issue("alice")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpired)
}

func TestTokenVerifyBadSignature(t *testing.T) {
	issuer := auth.NewTokenService("one-secret", time.Minute)
	verifier := auth.NewTokenService("another-secret", time.Minute)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrBadSignature)
}

func TestTokenVerifyMalformed(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Minute)

	for _, garbage := range []string{"", "garbage", "a.b.c"} {
		_, err := tokens.Verify(garbage)
		assert.ErrorIs(t, err, auth.ErrMalformed, "input %q", garbage)
	}
}

func TestTokenDefaultTTL(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", 0)
	assert.Equal(t, auth.DefaultTokenTTL, tokens.TTL())
}
