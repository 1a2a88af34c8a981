package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health pings the database and reports overall status. Degraded state still
// answers 200 so load balancers keep serving cached pages.
func (h *HealthHandler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil {
			dbStatus = "error"
		} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			dbStatus = "error"
		}
	} else {
		dbStatus = "unconfigured"
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":   "ok",
		"database": dbStatus,
	})
}
