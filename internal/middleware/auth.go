package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/services"
)

func Auth(authService *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "MISSING_AUTHORIZATION",
					"message": "Authorization header is required",
				},
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_AUTHORIZATION_FORMAT",
					"message": "Authorization header must be in format 'Bearer <token>'",
				},
			})
			c.Abort()
			return
		}

		tokenString := tokenParts[1]

		// API keys carry no dots; JWTs always do
		if !strings.Contains(tokenString, ".") {
			tier, err := authService.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "INVALID_API_KEY",
						"message": "Invalid API key",
					},
				})
				c.Abort()
				return
			}

			// API key callers identify the listener via header
			listenerIDStr := c.GetHeader("X-Listener-ID")
			var listenerID uuid.UUID
			if listenerIDStr != "" {
				var err error
				listenerID, err = uuid.Parse(listenerIDStr)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{
						"error": gin.H{
							"code":    "INVALID_LISTENER_ID",
							"message": "Invalid listener ID format",
						},
					})
					c.Abort()
					return
				}
			} else {
				listenerID = uuid.New() // anonymous listener for this request
			}

			c.Set("listener_id", listenerID)
			c.Set("tier", tier)
			c.Set("api_key", tokenString)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Invalid or expired token",
				},
			})
			c.Abort()
			return
		}

		c.Set("listener_id", claims.ListenerID)
		c.Set("tier", claims.Tier)
		c.Set("api_key", claims.APIKey)
		c.Next()
	}
}

func GetListenerFromContext(c *gin.Context) (uuid.UUID, string) {
	listenerID, _ := c.Get("listener_id")
	tier, _ := c.Get("tier")

	return listenerID.(uuid.UUID), tier.(string)
}
