package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	apperrors "github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
)

// CacheAdminHandler exposes cache observability and maintenance to admins.
type CacheAdminHandler struct {
	cache *cache.Cache
}

func NewCacheAdminHandler(appCache *cache.Cache) *CacheAdminHandler {
	return &CacheAdminHandler{cache: appCache}
}

// Stats returns the hit/miss/write/eviction counters and the hit rate.
func (h *CacheAdminHandler) Stats(c *gin.Context) {
	if h.cache == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	stats := h.cache.Stats()
	response.Success(c, http.StatusOK, gin.H{
		"counters": stats.Snapshot(),
		"hit_rate": stats.HitRate(),
	})
}

// Flush drops every cached entry. Admin role only.
func (h *CacheAdminHandler) Flush(c *gin.Context) {
	if h.cache == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	removed := h.cache.Flush(c.Request.Context())
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

// ClearType drops every cached entry of one type.
func (h *CacheAdminHandler) ClearType(c *gin.Context) {
	if h.cache == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	entryType := c.Param("type")
	if entryType == "" {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}

	removed := h.cache.ClearByType(c.Request.Context(), entryType)
	response.Success(c, http.StatusOK, gin.H{"type": entryType, "removed": removed})
}
