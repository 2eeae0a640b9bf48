package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-fuel-api/internal/middleware"
	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

// currentClaims extracts the authenticated user's claims, when present.
func currentClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorID returns the authenticated user's id, or empty when anonymous.
func actorID(c *gin.Context) string {
	if claims := currentClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}
