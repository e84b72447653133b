package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orgpay/payment-server/internal/models"
	"github.com/orgpay/payment-server/internal/service"
)

const actorKey = "actor"

// AuthMiddleware returns a Gin middleware for authentication. It verifies
// the bearer token, loads the acting user, and stores it in the request
// context for the handlers.
func AuthMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the JWT token from the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Authentication required",
			})
			c.Abort()
			return
		}

		// Check if the Authorization header starts with "Bearer "
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Invalid token format",
			})
			c.Abort()
			return
		}

		actor, err := authSvc.UserForToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Invalid token",
			})
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// Actor returns the authenticated user stored by AuthMiddleware.
func Actor(c *gin.Context) *models.User {
	return c.MustGet(actorKey).(*models.User)
}
