package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/crypto"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/metrics"
)

// Defaults applied when the corresponding Config field is zero.
const (
	DefaultMaxLoginAttempts = 5
	DefaultLockoutDuration  = 15 * time.Minute
	DefaultSessionTTL       = 24 * time.Hour
	DefaultTokenLength      = 32 // bytes, 256 bits of entropy
)

// Expected authentication outcomes. Anything else returned by the service is
// an infrastructure fault that callers must collapse to a generic failure.
var (
	// ErrInvalidCredentials covers empty input, unknown usernames and wrong
	// passwords alike; the caller-facing message never distinguishes them.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals the account exceeded the permitted failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
	// ErrAccountDisabled signals the account has been deactivated. Handlers
	// present it with the same generic message as ErrInvalidCredentials.
	ErrAccountDisabled = errors.New("auth: account disabled")
	// ErrRateLimited signals too many attempts from one source address.
	ErrRateLimited = errors.New("auth: too many attempts")
	// ErrNotAuthenticated marks a missing, expired, or deactivated session.
	ErrNotAuthenticated = errors.New("auth: not authenticated")
)

// Config describes tunable behaviour for the auth Service.
type Config struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	SessionTTL       time.Duration
	TokenLength      int
	Clock            func() time.Time
}

// LoginInput carries the credentials and client metadata for one attempt.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is returned on success: the sanitized profile plus the freshly
// created session row (whose Token and CSRFToken the transport layer hands
// to the client).
type LoginResult struct {
	Profile models.Profile
	Session *models.AdminSession
}

// Identity is the authenticated principal attached to a validated session.
type Identity struct {
	Admin   models.Profile
	Session *models.AdminSession
}

// EventRecorder persists security events out-of-band. Implementations must
// never fail a login because event recording failed.
type EventRecorder interface {
	Record(ctx context.Context, event models.AuthEvent)
}

// Service drives the admin session lifecycle and the account lockout state
// machine: Unlocked -> (N failed logins) -> Locked(until) -> (time) -> Unlocked.
type Service struct {
	db          *gorm.DB
	limiter     LoginLimiter
	events      EventRecorder
	maxAttempts int
	lockout     time.Duration
	sessionTTL  time.Duration
	tokenLen    int
	now         func() time.Time
	log         *zap.Logger
}

// NewService constructs the auth service. The limiter and recorder are
// optional; a nil limiter disables source-address rate limiting.
func NewService(db *gorm.DB, limiter LoginLimiter, events EventRecorder, cfg Config) (*Service, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}

	maxAttempts := cfg.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}

	lockout := cfg.LockoutDuration
	if lockout <= 0 {
		lockout = DefaultLockoutDuration
	}

	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	tokenLen := cfg.TokenLength
	if tokenLen <= 0 {
		tokenLen = DefaultTokenLength
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		db:          db,
		limiter:     limiter,
		events:      events,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		sessionTTL:  sessionTTL,
		tokenLen:    tokenLen,
		now:         clock,
		log:         logger.WithModule("auth"),
	}, nil
}

// Login runs the ordered credential checks and either activates a session or
// returns one of the expected outcome errors. Checks short-circuit in order:
// validation, source-address rate limit, user lookup, lockout, password,
// active flag.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	ctx = ensuredContext(ctx)

	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	ip := strings.TrimSpace(input.IPAddress)

	// The attempt is recorded against the source address before the account
	// store is consulted, so unknown usernames still consume budget.
	if s.limiter != nil {
		allowed, err := s.limiter.Attempt(ctx, ip)
		if err != nil {
			// a broken limiter backend must not lock every admin out
			s.log.Warn("login limiter unavailable", zap.Error(err))
		} else if !allowed {
			s.recordEvent(ctx, nil, username, models.AuthEventRateLimited, "source address over limit", input)
			metrics.AuthAttempts.WithLabelValues("rate_limited").Inc()
			return nil, ErrRateLimited
		}
	}

	now := s.now()

	var user models.AdminUser
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", username).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.recordEvent(ctx, nil, username, models.AuthEventLoginFailure, "unknown username", input)
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth service: query user: %w", err)
	}

	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		s.recordEvent(ctx, &user.ID, username, models.AuthEventLoginFailure, "account locked", input)
		metrics.AuthAttempts.WithLabelValues("locked").Inc()
		return nil, ErrAccountLocked
	}

	// The lockout elapsed; clear the stale state before verification.
	if user.LockedUntil != nil {
		user.LockedUntil = nil
		user.FailedAttempts = 0
		if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
			"locked_until":    nil,
			"failed_attempts": 0,
		}).Error; err != nil {
			return nil, fmt.Errorf("auth service: reset lock state: %w", err)
		}
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		if err := s.handleFailedAttempt(ctx, &user, now, input); err != nil {
			return nil, err
		}
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		// the message stays generic even when this attempt tripped the lockout
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.recordEvent(ctx, &user.ID, username, models.AuthEventLoginFailure, "account disabled", input)
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrAccountDisabled
	}

	session, err := s.activateSession(ctx, &user, now, input)
	if err != nil {
		return nil, err
	}

	s.recordEvent(ctx, &user.ID, username, models.AuthEventLoginSuccess, "", input)
	metrics.AuthAttempts.WithLabelValues("success").Inc()
	metrics.ActiveSessions.Inc()

	return &LoginResult{
		Profile: user.Sanitize(),
		Session: session,
	}, nil
}

func (s *Service) handleFailedAttempt(ctx context.Context, user *models.AdminUser, now time.Time, input LoginInput) error {
	user.FailedAttempts++

	updates := map[string]any{
		"failed_attempts": user.FailedAttempts,
	}

	locked := false
	if user.FailedAttempts >= s.maxAttempts {
		lockUntil := now.Add(s.lockout)
		user.LockedUntil = &lockUntil
		updates["locked_until"] = lockUntil
		locked = true
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return fmt.Errorf("auth service: update failed attempts: %w", err)
	}

	if locked {
		s.recordEvent(ctx, &user.ID, user.Username, models.AuthEventLockout,
			fmt.Sprintf("locked after %d failed attempts", user.FailedAttempts), input)
	} else {
		s.recordEvent(ctx, &user.ID, user.Username, models.AuthEventLoginFailure, "wrong password", input)
	}

	return nil
}

func (s *Service) activateSession(ctx context.Context, user *models.AdminUser, now time.Time, input LoginInput) (*models.AdminSession, error) {
	token, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return nil, fmt.Errorf("auth service: generate session token: %w", err)
	}

	csrfToken, err := GenerateCSRFToken()
	if err != nil {
		return nil, fmt.Errorf("auth service: generate csrf token: %w", err)
	}

	session := &models.AdminSession{
		Token:      token,
		AdminID:    user.ID,
		CSRFToken:  csrfToken,
		IPAddress:  strings.TrimSpace(input.IPAddress),
		UserAgent:  strings.TrimSpace(input.UserAgent),
		ExpiresAt:  now.Add(s.sessionTTL),
		LastSeenAt: now,
		IsActive:   true,
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("auth service: create session: %w", err)
	}

	lastIP := strings.TrimSpace(input.IPAddress)
	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = lastIP

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"last_login_ip":   lastIP,
	}).Error; err != nil {
		return nil, fmt.Errorf("auth service: update user: %w", err)
	}

	return session, nil
}

// Authenticate validates a held session token against an active, unexpired
// session row joined to an active user. Invalid or expired sessions trigger
// an implicit logout and report ErrNotAuthenticated rather than an
// infrastructure error. A session past half its lifetime is transparently
// extended (sliding expiry).
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	ctx = ensuredContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	var session models.AdminSession
	err := s.db.WithContext(ctx).
		Preload("Admin").
		Take(&session, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		s.log.Error("session lookup failed", zap.Error(err))
		return nil, ErrNotAuthenticated
	}

	now := s.now()

	if !session.IsActive || !session.ExpiresAt.After(now) || session.Admin == nil || !session.Admin.IsActive {
		s.deactivate(ctx, session.ID)
		return nil, ErrNotAuthenticated
	}

	updates := map[string]any{"last_seen_at": now}

	// Renew-on-use: extend once less than half the lifetime remains.
	if session.ExpiresAt.Sub(now) < s.sessionTTL/2 {
		session.ExpiresAt = now.Add(s.sessionTTL)
		updates["expires_at"] = session.ExpiresAt
	}

	if err := s.db.WithContext(ctx).Model(&models.AdminSession{}).
		Where("id = ?", session.ID).
		Updates(updates).Error; err != nil {
		// extension is best-effort; the session is still valid as loaded
		s.log.Warn("session extension failed", zap.Error(err))
	}
	session.LastSeenAt = now

	return &Identity{
		Admin:   session.Admin.Sanitize(),
		Session: &session,
	}, nil
}

// Logout soft-deactivates the session row. Calling it without a matching
// active session is a no-op success.
func (s *Service) Logout(ctx context.Context, token string) error {
	ctx = ensuredContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&models.AdminSession{}).
		Where("token = ? AND is_active = ?", token, true).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("auth service: logout: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	return nil
}

// PurgeExpiredSessions removes rows that are expired or already deactivated.
// Wired to the hourly maintenance job.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	ctx = ensuredContext(ctx)

	now := s.now()

	var activeExpired int64
	if err := s.db.WithContext(ctx).
		Model(&models.AdminSession{}).
		Where("expires_at < ? AND is_active = ?", now, true).
		Count(&activeExpired).Error; err != nil {
		return 0, fmt.Errorf("auth service: count expired sessions: %w", err)
	}

	result := s.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Or("is_active = ?", false).
		Delete(&models.AdminSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("auth service: purge sessions: %w", result.Error)
	}

	if activeExpired > 0 {
		metrics.ActiveSessions.Sub(float64(activeExpired))
	}

	return result.RowsAffected, nil
}

func (s *Service) deactivate(ctx context.Context, sessionID string) {
	if err := s.db.WithContext(ctx).Model(&models.AdminSession{}).
		Where("id = ?", sessionID).
		Update("is_active", false).Error; err != nil {
		s.log.Warn("session deactivation failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Service) recordEvent(ctx context.Context, adminID *string, username, kind, detail string, input LoginInput) {
	if s.events == nil {
		return
	}
	s.events.Record(ctx, models.AuthEvent{
		AdminID:   adminID,
		Username:  username,
		Kind:      kind,
		Detail:    detail,
		IPAddress: strings.TrimSpace(input.IPAddress),
		UserAgent: strings.TrimSpace(input.UserAgent),
	})
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// Role ranks, ordered moderator < admin. Unknown roles rank below all
// known roles.
var roleRanks = map[string]int{
	models.RoleModerator: 1,
	models.RoleAdmin:     2,
}

// HasRole reports whether role satisfies the required role in the ordered
// hierarchy.
func HasRole(role, required string) bool {
	return roleRanks[role] >= roleRanks[required]
}
