package middleware

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/childcare-incidents-api/internal/models"
)

// AuditWriter persists audit entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditAccess records a read of an incident document once the request succeeds. The incident
// id comes from the :id route parameter. Failures are logged and never change the response.
func AuditAccess(writer AuditWriter, logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if writer == nil || c.Writer.Status() >= 400 {
			return
		}
		claims := CurrentUser(c)
		if claims == nil {
			return
		}
		resourceID := c.Param("id")
		userID := claims.UserID
		payload, _ := json.Marshal(map[string]interface{}{
			"path":   c.FullPath(),
			"query":  c.Request.URL.RawQuery,
			"status": c.Writer.Status(),
		})
		entry := &models.AuditLog{
			OrganizationID: claims.OrganizationID,
			UserID:         &userID,
			Action:         action,
			Resource:       models.AuditResourceIncident,
			NewValues:      payload,
		}
		if resourceID != "" {
			entry.ResourceID = &resourceID
		}
		if err := writer.CreateAuditLog(c.Request.Context(), entry); err != nil {
			logger.Warn("failed to write access audit", zap.String("action", action), zap.Error(err))
		}
	}
}
