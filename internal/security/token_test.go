package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chatnslate/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)

	token, err := svc.CreateForUser("user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	sub, err := svc.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := security.NewTokenService("secret-a", time.Hour)
	verifier := security.NewTokenService("secret-b", time.Hour)

	token, err := issuer.CreateForUser("user-1")
	assert.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	svc := security.NewTokenService("secret", -time.Minute)

	token, err := svc.CreateForUser("user-1")
	assert.NoError(t, err)

	_, err = svc.Parse(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	svc := security.NewTokenService("secret", time.Hour)
	_, err := svc.Parse("not-a-token")
	assert.Error(t, err)
}
