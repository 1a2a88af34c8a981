package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/models"
	apperrors "github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
)

// ContactService stores contact form submissions for review in the admin
// panel. Outbound email delivery is intentionally absent.
type ContactService struct {
	db *gorm.DB
}

// SubmitMessageInput is one contact form submission plus request context.
type SubmitMessageInput struct {
	Name    string
	Email   string
	Subject string
	Body    string

	IPAddress string
	UserAgent string
	Referrer  string
}

// ListMessagesInput filters and paginates the admin message list.
type ListMessagesInput struct {
	OnlyUnread bool
	Page       int
	PerPage    int
}

// NewContactService constructs the service.
func NewContactService(db *gorm.DB) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	return &ContactService{db: db}, nil
}

// Submit validates and stores one message.
func (s *ContactService) Submit(ctx context.Context, input SubmitMessageInput) (*models.ContactMessage, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	body := strings.TrimSpace(input.Body)
	if name == "" || email == "" || body == "" {
		return nil, apperrors.NewBadRequest("Name, email, and message are required")
	}

	meta, err := json.Marshal(map[string]string{
		"ip":         strings.TrimSpace(input.IPAddress),
		"user_agent": strings.TrimSpace(input.UserAgent),
		"referrer":   strings.TrimSpace(input.Referrer),
	})
	if err != nil {
		return nil, fmt.Errorf("contact service: encode meta: %w", err)
	}

	message := &models.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(input.Subject),
		Body:    body,
		Meta:    meta,
	}

	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, fmt.Errorf("contact service: create: %w", err)
	}
	return message, nil
}

// List returns messages newest first with the total count for pagination.
func (s *ContactService) List(ctx context.Context, input ListMessagesInput) ([]models.ContactMessage, int64, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).Model(&models.ContactMessage{})
	if input.OnlyUnread {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("contact service: count: %w", err)
	}

	var messages []models.ContactMessage
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("contact service: list: %w", err)
	}

	return messages, total, nil
}

// Get fetches one message by id.
func (s *ContactService) Get(ctx context.Context, id string) (*models.ContactMessage, error) {
	var message models.ContactMessage
	err := s.db.WithContext(ctx).Take(&message, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("contact service: get: %w", err)
	}
	return &message, nil
}

// MarkRead flags a message as handled. Already-read messages stay read.
func (s *ContactService) MarkRead(ctx context.Context, id string) (*models.ContactMessage, error) {
	message, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !message.IsRead {
		if err := s.db.WithContext(ctx).Model(message).Update("is_read", true).Error; err != nil {
			return nil, fmt.Errorf("contact service: mark read: %w", err)
		}
		message.IsRead = true
	}
	return message, nil
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.ContactMessage{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("contact service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UnreadCount returns how many messages await review.
func (s *ContactService) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("is_read = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("contact service: unread count: %w", err)
	}
	return count, nil
}
