package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxMemberIDLength = 64

// RequireMember extracts the caller's member_id query parameter and
// attaches it to the request context. There is no identity system:
// member ids are opaque caller-supplied strings.
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.Query("member_id")

		if memberID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "member_id query parameter is required"})
			c.Abort()
			return
		}

		if len(memberID) > maxMemberIDLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "member_id exceeds 64 characters"})
			c.Abort()
			return
		}

		c.Set("memberID", memberID)
		c.Next()
	}
}

// OptionalMember attaches member_id when present; requests without one
// proceed anonymously.
func OptionalMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.Query("member_id")

		if memberID != "" {
			if len(memberID) > maxMemberIDLength {
				c.JSON(http.StatusBadRequest, gin.H{"error": "member_id exceeds 64 characters"})
				c.Abort()
				return
			}
			c.Set("memberID", memberID)
		}

		c.Next()
	}
}
