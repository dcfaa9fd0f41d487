package handler

import (
	"context"
	"net/http"
	"strconv"

	"clinic-queue-dashboard/internal/models"
	"clinic-queue-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditLog reads the queue operation trail
type AuditLog interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

type AuditHandler struct {
	audit  AuditLog
	logger *zap.Logger
}

func NewAuditHandler(audit AuditLog, logger *zap.Logger) *AuditHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// List returns the newest audit entries, ?limit=N (1-500, default 50)
func (h *AuditHandler) List(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAuditLimit {
			utils.ErrorResponse(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := h.audit.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list audit entries", zap.Error(err))
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "audit log unavailable")
		return
	}
	utils.ListResponse(c, "entries", entries, len(entries))
}

// RegisterAuditRoutes mounts the audit trail on r
func RegisterAuditRoutes(r gin.IRouter, audit AuditLog, logger *zap.Logger) {
	auditHandler := NewAuditHandler(audit, logger)
	r.GET("/audit", auditHandler.List)
}
