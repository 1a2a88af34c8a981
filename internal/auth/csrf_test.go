package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
)

func TestCSRFTokenRoundTrip(t *testing.T) {
	token, err := GenerateCSRFToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.True(t, VerifyCSRFToken(token, token))
	require.False(t, VerifyCSRFToken(token, "forged"))
	require.False(t, VerifyCSRFToken(token, ""))
	require.False(t, VerifyCSRFToken("", ""))

	other, err := GenerateCSRFToken()
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}

func TestVerifyCSRFAgainstSession(t *testing.T) {
	token, err := GenerateCSRFToken()
	require.NoError(t, err)

	session := &models.AdminSession{CSRFToken: token}
	require.True(t, VerifyCSRF(session, token))
	require.False(t, VerifyCSRF(session, "forged"))
	require.False(t, VerifyCSRF(nil, token))
}
