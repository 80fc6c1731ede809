package middleware

import (
	"strings"

	"anoa.com/campusfeedback/internal/entity"
	accessService "anoa.com/campusfeedback/internal/modules/access/service"
	"anoa.com/campusfeedback/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	ctxUser      = "user"
	ctxUserID    = "user_id"
	ctxPrincipal = "principal"
)

type AuthMiddleware struct {
	gate accessService.Gate
}

func NewAuthMiddleware(gate accessService.Gate) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func setPrincipal(c *gin.Context, p *accessService.Principal) {
	c.Set(ctxPrincipal, p)
	c.Set(ctxUser, p.User)
	c.Set(ctxUserID, p.User.ID.String())
}

// RequireAuth rejects the request unless the bearer token resolves to a live
// account.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := m.gate.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth attaches the principal when the token is usable and treats
// the caller as anonymous otherwise.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal := m.gate.AuthenticateOptional(c.Request.Context(), bearerToken(c)); principal != nil {
			setPrincipal(c, principal)
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := accessService.Authorize(CurrentUser(c), roles...); err != nil {
			response.AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous callers.
func CurrentUser(c *gin.Context) *entity.User {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	user, _ := v.(*entity.User)
	return user
}

func CurrentPrincipal(c *gin.Context) *accessService.Principal {
	v, ok := c.Get(ctxPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*accessService.Principal)
	return p
}
