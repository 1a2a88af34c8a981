package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/services"
	apperrors "github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/validator"
)

// ContactHandler exposes the public contact form and the admin inbox.
type ContactHandler struct {
	svc *services.ContactService
}

func NewContactHandler(svc *services.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

type submitMessageRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=128"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"max=200"`
	Body    string `json:"body" validate:"required,min=1,max=10000"`
}

// Submit accepts a contact form submission.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req submitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	message, err := h.svc.Submit(c.Request.Context(), services.SubmitMessageInput{
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Body:      req.Body,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": message.ID, "received": true})
}

// List returns messages for the admin inbox with pagination metadata.
func (h *ContactHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	onlyUnread := c.Query("unread") == "true"

	messages, total, err := h.svc.List(c.Request.Context(), services.ListMessagesInput{
		OnlyUnread: onlyUnread,
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	response.SuccessWithMeta(c, http.StatusOK, messages, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	})
}

// Get returns one message.
func (h *ContactHandler) Get(c *gin.Context) {
	message, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, message)
}

// MarkRead flags a message as handled.
func (h *ContactHandler) MarkRead(c *gin.Context) {
	message, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, message)
}

// Delete removes a message.
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// UnreadCount reports how many messages await review.
func (h *ContactHandler) UnreadCount(c *gin.Context) {
	count, err := h.svc.UnreadCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread": count})
}
