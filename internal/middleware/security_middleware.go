package middleware

import (
	"context"
	"crypto/subtle"
	"strings"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"
	"go-pos-gst/internal/models"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Principal(ctx context.Context, token string) (auth.Principal, error)
}

// LicenseChecker fails when a shop's subscription does not allow access.
type LicenseChecker interface {
	Check(ctx context.Context, shopID uint) (*models.License, error)
}

// Fail aborts the request with the error's status and a
// {success:false, message} body.
func Fail(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.KindOf(err).Status(), gin.H{
		"success": false,
		"message": apperr.Message(err),
	})
}

// AuthMiddleware checks if the user has a valid JWT token
func AuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Fail(c, apperr.New(apperr.Unauthorized, "Authorization header is required"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			Fail(c, apperr.New(apperr.Unauthorized, "Authorization header must start with Bearer"))
			return
		}

		p, err := a.Principal(c.Request.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			Fail(c, err)
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// CheckLicense re-checks the caller's shop license on every request, so an
// expiry takes effect without a new login.
func CheckLicense(l LicenseChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			Fail(c, apperr.New(apperr.Unauthorized, "authentication required"))
			return
		}
		if _, err := l.Check(c.Request.Context(), p.ShopID); err != nil {
			Fail(c, err)
			return
		}
		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions.
// Services check again; this keeps forbidden requests away from binding.
func RequireRole(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		if err := p.Require(capability); err != nil {
			Fail(c, err)
			return
		}
		c.Next()
	}
}

// IssuerKey guards the license-issuing endpoint. An empty key disables it.
func IssuerKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader("X-Issuer-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			Fail(c, apperr.New(apperr.Forbidden, "invalid issuer key"))
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal AuthMiddleware stored on c.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}
