package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/models"
)

// IdentityKey is the gin context key holding the authenticated API key.
// RateLimit buckets requests by it.
const IdentityKey = "api_key"

// Auth returns API-key authentication middleware.
//
// Accepts either header:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// With no configured keys the middleware lets every request through.
func Auth(apiKeys []string) gin.HandlerFunc {
	digests := make([][sha256.Size]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	if len(digests) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			unauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if !knownKey(digests, key) {
			unauthorized(c, "invalid API key")
			return
		}

		c.Set(IdentityKey, key)
		c.Next()
	}
}

// knownKey compares digests in constant time and always scans every key.
func knownKey(digests [][sha256.Size]byte, key string) bool {
	sum := sha256.Sum256([]byte(key))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(digests[i][:], sum[:])
	}
	return found == 1
}

func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeUnauthorized, Message: msg},
	})
}
