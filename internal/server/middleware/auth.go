package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/translation-router/internal/server/problem"
)

// Auth checks for one of keys in a Bearer Authorization header. With no
// keys configured every request passes.
func Auth(keys []string) gin.HandlerFunc {
	hashes := make([][32]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			hashes = append(hashes, sha256.Sum256([]byte(k)))
		}
	}

	return func(c *gin.Context) {
		if len(hashes) == 0 {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Missing Authorization header")
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abortUnauthorized(c, "Invalid Authorization header format")
			return
		}

		sum := sha256.Sum256([]byte(token))
		for _, h := range hashes {
			if subtle.ConstantTimeCompare(sum[:], h[:]) == 1 {
				c.Next()
				return
			}
		}
		abortUnauthorized(c, "Invalid API key")
	}
}

func abortUnauthorized(c *gin.Context, detail string) {
	p := problem.New(http.StatusUnauthorized, "Unauthorized", detail, problem.WithInstance(c.Request.URL.Path))
	c.Header("WWW-Authenticate", `Bearer realm="translation-router"`)
	c.AbortWithStatusJSON(p.Status, p)
}
