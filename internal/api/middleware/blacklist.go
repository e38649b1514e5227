package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coco-ide/completion-service/internal/api/dto"
	"github.com/coco-ide/completion-service/internal/services/blacklist"
)

// BlacklistMiddleware refuses requests from source IPs with too many failed
// session creations on record.
type BlacklistMiddleware struct {
	blacklist *blacklist.Blacklist
}

// NewBlacklistMiddleware creates a new BlacklistMiddleware.
func NewBlacklistMiddleware(bl *blacklist.Blacklist) *BlacklistMiddleware {
	return &BlacklistMiddleware{blacklist: bl}
}

// Check returns a gin middleware that rejects blacklisted source IPs.
func (m *BlacklistMiddleware) Check() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.blacklist.IsBlacklisted(c.Request.Context(), c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Error: "too many failed attempts",
			})
			return
		}
		c.Next()
	}
}
