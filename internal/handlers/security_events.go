package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/security"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
)

// SecurityHandler lets admins review recent authentication events.
type SecurityHandler struct {
	recorder *security.Recorder
}

func NewSecurityHandler(recorder *security.Recorder) *SecurityHandler {
	return &SecurityHandler{recorder: recorder}
}

// Events returns the newest auth events, most recent first.
func (h *SecurityHandler) Events(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.recorder.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, events)
}
