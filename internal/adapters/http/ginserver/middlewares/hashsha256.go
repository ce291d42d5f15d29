package middlewares

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/andrasq/kstats/internal/misc"
)

// VerifyHashSHA256 checks the HashSHA256 request header against the body
// when a shared key is configured, rejecting tampered uploads. Requests
// without the header pass through so unsigned uploaders keep working.
func VerifyHashSHA256(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		got := strings.TrimSpace(c.GetHeader("HashSHA256"))
		if got == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
			return
		}
		if err := c.Request.Body.Close(); err != nil {
			_ = c.Error(err)
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if len(body) > 0 {
			want := misc.SumSHA256(body, key)
			if !strings.EqualFold(got, want) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid hash"})
				return
			}
		}
		c.Next()
	}
}
