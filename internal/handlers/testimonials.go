package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/services"
	apperrors "github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/validator"
)

// TestimonialHandler exposes the public testimonial wall plus the admin
// moderation endpoints.
type TestimonialHandler struct {
	svc *services.TestimonialService
}

func NewTestimonialHandler(svc *services.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{svc: svc}
}

// ListApproved serves the public testimonial wall from the cache when warm.
func (h *TestimonialHandler) ListApproved(c *gin.Context) {
	testimonials, err := h.svc.ListApproved(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, testimonials)
}

type submitTestimonialRequest struct {
	Author  string `json:"author" validate:"required,min=1,max=128"`
	Company string `json:"company" validate:"max=128"`
	Quote   string `json:"quote" validate:"required,min=1,max=2000"`
	Rating  int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

// Submit accepts a public submission; it goes into the moderation queue.
func (h *TestimonialHandler) Submit(c *gin.Context) {
	var req submitTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	testimonial, err := h.svc.Submit(c.Request.Context(), services.SubmitTestimonialInput{
		Author:  req.Author,
		Company: req.Company,
		Quote:   req.Quote,
		Rating:  req.Rating,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, testimonial)
}

// List returns every testimonial for moderation, optionally filtered by
// the status query parameter.
func (h *TestimonialHandler) List(c *gin.Context) {
	testimonials, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, testimonials)
}

// Approve publishes a pending testimonial.
func (h *TestimonialHandler) Approve(c *gin.Context) {
	testimonial, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, testimonial)
}

type updateTestimonialRequest struct {
	Author  *string `json:"author"`
	Company *string `json:"company"`
	Quote   *string `json:"quote"`
	Rating  *int    `json:"rating"`
	Status  *string `json:"status"`
}

// Update applies admin edits.
func (h *TestimonialHandler) Update(c *gin.Context) {
	var req updateTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}

	testimonial, err := h.svc.Update(c.Request.Context(), c.Param("id"), services.UpdateTestimonialInput{
		Author:  req.Author,
		Company: req.Company,
		Quote:   req.Quote,
		Rating:  req.Rating,
		Status:  req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, testimonial)
}

// Delete removes a testimonial.
func (h *TestimonialHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
