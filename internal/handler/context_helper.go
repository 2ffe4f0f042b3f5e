package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/childcare-incidents-api/internal/middleware"
	"github.com/noah-isme/childcare-incidents-api/internal/models"
	"github.com/noah-isme/childcare-incidents-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// sendFile writes a rendered document using its disposition.
func sendFile(c *gin.Context, name, contentType string, inline bool, body []byte) {
	response.Attachment(c, name, contentType, inline, body)
}
