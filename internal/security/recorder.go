package security

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
)

// Recorder persists authentication events to the auth_events table. It is the
// production implementation of auth.EventRecorder: recording is best-effort
// and never surfaces an error to the login path.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRecorder constructs a Recorder over the shared database handle.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{
		db:  db,
		log: logger.WithModule("security"),
	}
}

// Record appends one event. Failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, event models.AuthEvent) {
	if r == nil || r.db == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := r.db.WithContext(ctx).Create(&event).Error; err != nil {
		r.log.Error("failed to record auth event",
			zap.String("kind", event.Kind),
			zap.String("username", event.Username),
			zap.Error(err))
		return
	}

	r.log.Debug("auth event recorded",
		zap.String("kind", event.Kind),
		zap.String("username", event.Username),
		zap.String("ip", event.IPAddress))
}

// RecentEvents returns the newest events, most recent first, capped at limit.
func (r *Recorder) RecentEvents(ctx context.Context, limit int) ([]models.AuthEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []models.AuthEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
