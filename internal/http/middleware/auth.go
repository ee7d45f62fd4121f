package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/contratpro/internal/auth"
	"github.com/nurpe/contratpro/internal/model"
)

const principalKey = "principal"

type TokenParser interface {
	Authenticate(token string) (*model.Principal, error)
}

// Auth rejects requests without a valid bearer token.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		principal, err := parser.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid token is sent and lets
// anonymous requests through. An invalid token is still rejected.
func OptionalAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		principal, err := parser.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		setPrincipal(c, principal)
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	p, ok := Principal(c)
	if !ok {
		return model.Principal{}, false
	}
	return *p, true
}

// Principal returns the caller, nil for anonymous requests.
func Principal(c *gin.Context) (*model.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := value.(*model.Principal)
	return p, ok && p != nil
}

func setPrincipal(c *gin.Context, principal *model.Principal) {
	c.Set(principalKey, principal)
	c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
