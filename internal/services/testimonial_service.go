package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	apperrors "github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
)

const (
	// TestimonialCacheType tags every cached testimonial payload so writes can
	// invalidate the whole group at once.
	TestimonialCacheType = "testimonials"

	approvedTestimonialsKey = "testimonials:approved"
)

// TestimonialService moderates visitor-submitted testimonials. The approved
// list is served cache-aside; every write clears the testimonial cache group.
type TestimonialService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *zap.Logger
}

// SubmitTestimonialInput is a public submission. Rating outside 1..5 falls
// back to 5.
type SubmitTestimonialInput struct {
	Author  string
	Company string
	Quote   string
	Rating  int
}

// UpdateTestimonialInput carries admin edits; nil fields are left unchanged.
type UpdateTestimonialInput struct {
	Author  *string
	Company *string
	Quote   *string
	Rating  *int
	Status  *string
}

// NewTestimonialService constructs the service. The cache may be nil, in
// which case every read goes to the database.
func NewTestimonialService(db *gorm.DB, appCache *cache.Cache) (*TestimonialService, error) {
	if db == nil {
		return nil, errors.New("testimonial service: db is required")
	}
	return &TestimonialService{
		db:    db,
		cache: appCache,
		log:   logger.WithModule("testimonials"),
	}, nil
}

// ListApproved returns the approved testimonials, newest first, serving the
// cached copy when present.
func (s *TestimonialService) ListApproved(ctx context.Context) ([]models.Testimonial, error) {
	producer := func() ([]models.Testimonial, error) {
		var approved []models.Testimonial
		err := s.db.WithContext(ctx).
			Where("status = ?", models.TestimonialApproved).
			Order("created_at DESC").
			Find(&approved).Error
		if err != nil {
			return nil, fmt.Errorf("testimonial service: list approved: %w", err)
		}
		return approved, nil
	}

	if s.cache == nil {
		return producer()
	}
	return cache.RememberJSON(ctx, s.cache, approvedTestimonialsKey, 0, TestimonialCacheType, producer)
}

// Submit stores a new testimonial in pending state for moderation.
func (s *TestimonialService) Submit(ctx context.Context, input SubmitTestimonialInput) (*models.Testimonial, error) {
	author := strings.TrimSpace(input.Author)
	quote := strings.TrimSpace(input.Quote)
	if author == "" || quote == "" {
		return nil, apperrors.NewBadRequest("Author and quote are required")
	}

	rating := input.Rating
	if rating < 1 || rating > 5 {
		rating = 5
	}

	testimonial := &models.Testimonial{
		Author:  author,
		Company: strings.TrimSpace(input.Company),
		Quote:   quote,
		Rating:  rating,
		Status:  models.TestimonialPending,
	}

	if err := s.db.WithContext(ctx).Create(testimonial).Error; err != nil {
		return nil, fmt.Errorf("testimonial service: create: %w", err)
	}

	s.invalidate(ctx)
	return testimonial, nil
}

// List returns testimonials for the admin panel, optionally filtered by
// status, newest first.
func (s *TestimonialService) List(ctx context.Context, status string) ([]models.Testimonial, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var testimonials []models.Testimonial
	if err := query.Find(&testimonials).Error; err != nil {
		return nil, fmt.Errorf("testimonial service: list: %w", err)
	}
	return testimonials, nil
}

// Get fetches one testimonial by id.
func (s *TestimonialService) Get(ctx context.Context, id string) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	err := s.db.WithContext(ctx).Take(&testimonial, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("testimonial service: get: %w", err)
	}
	return &testimonial, nil
}

// Approve publishes a pending testimonial. Approving an already approved
// entry is a no-op success.
func (s *TestimonialService) Approve(ctx context.Context, id string) (*models.Testimonial, error) {
	testimonial, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if testimonial.Status != models.TestimonialApproved {
		err := s.db.WithContext(ctx).Model(testimonial).
			Update("status", models.TestimonialApproved).Error
		if err != nil {
			return nil, fmt.Errorf("testimonial service: approve: %w", err)
		}
		testimonial.Status = models.TestimonialApproved
	}

	s.invalidate(ctx)
	return testimonial, nil
}

// Update applies admin edits to an existing testimonial.
func (s *TestimonialService) Update(ctx context.Context, id string, input UpdateTestimonialInput) (*models.Testimonial, error) {
	testimonial, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Author != nil {
		author := strings.TrimSpace(*input.Author)
		if author == "" {
			return nil, apperrors.NewBadRequest("Author cannot be empty")
		}
		updates["author"] = author
	}
	if input.Company != nil {
		updates["company"] = strings.TrimSpace(*input.Company)
	}
	if input.Quote != nil {
		quote := strings.TrimSpace(*input.Quote)
		if quote == "" {
			return nil, apperrors.NewBadRequest("Quote cannot be empty")
		}
		updates["quote"] = quote
	}
	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperrors.NewBadRequest("Rating must be between 1 and 5")
		}
		updates["rating"] = *input.Rating
	}
	if input.Status != nil {
		if *input.Status != models.TestimonialPending && *input.Status != models.TestimonialApproved {
			return nil, apperrors.NewBadRequest("Unknown testimonial status")
		}
		updates["status"] = *input.Status
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(testimonial).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("testimonial service: update: %w", err)
		}
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a testimonial.
func (s *TestimonialService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Testimonial{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("testimonial service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.invalidate(ctx)
	return nil
}

func (s *TestimonialService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	removed := s.cache.ClearByType(ctx, TestimonialCacheType)
	if removed > 0 {
		s.log.Debug("testimonial cache invalidated", zap.Int64("removed", removed))
	}
}
