package auth

import (
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/crypto"
)

const csrfTokenLength = 32

// GenerateCSRFToken returns a fresh random token. One token is issued per
// admin session, at login.
func GenerateCSRFToken() (string, error) {
	return crypto.GenerateToken(csrfTokenLength)
}

// VerifyCSRFToken compares the expected token with the candidate in constant
// time. Absent or mismatching values report false, never an error.
func VerifyCSRFToken(expected, candidate string) bool {
	return crypto.ConstantTimeEqual(expected, candidate)
}

// VerifyCSRF checks a candidate token against the one bound to the session.
func VerifyCSRF(session *models.AdminSession, candidate string) bool {
	if session == nil {
		return false
	}
	return VerifyCSRFToken(session.CSRFToken, candidate)
}
