package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/danuartha/wedding-management-backend/internal/rbac"
)

// RequirePermission gates a route on the caller holding resource:action for
// the event in the path. A definite "no" is 403; an evaluator failure is 503
// rather than a silent allow.
func RequirePermission(rbacSvc rbac.Service, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := strconv.ParseUint(c.Param("eventID"), 10, 32)
		if err != nil || eventID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		allowed, err := rbacSvc.Can(c.Request.Context(), c.GetUint("user_id"), uint(eventID), resource, action)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "authorization unavailable"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
