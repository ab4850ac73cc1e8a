package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/encorefm/encore/internal/services"
)

func RateLimit(rateLimitService *services.RateLimitService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		listenerID, exists := c.Get("listener_id")
		if !exists {
			// Only reachable if the route skipped the auth middleware
			logger.Error("Rate limit middleware called without listener context")
			c.Next()
			return
		}

		tier, exists := c.Get("tier")
		if !exists {
			tier = "free"
		}

		var listenerIDStr string
		switch v := listenerID.(type) {
		case uuid.UUID:
			listenerIDStr = v.String()
		case string:
			listenerIDStr = v
		default:
			listenerIDStr = "unknown"
		}

		allowed, info, err := rateLimitService.IsAllowed(listenerIDStr, tier.(string))
		if err != nil {
			logger.WithError(err).Error("Failed to check rate limit")
			// Continue on error to avoid blocking requests when Redis is down
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			logger.WithFields(logrus.Fields{
				"listener_id": listenerIDStr,
				"tier":        tier,
				"limit":       info.Limit,
			}).Warn("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
				"rate_limit": info,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
