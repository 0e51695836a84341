package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coursehub-auth/internal/utils"
)

// Context keys set by JWTAuth.
const (
	KeyAccountID = "account_id"
	KeyRole      = "role"
	KeyClaims    = "claims"
)

// TokenVerifier checks an access token's signature, expiry and issuer.
// *utils.Issuer implements it.
type TokenVerifier interface {
	Verify(raw string) (*utils.Claims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token.
// On success the account id (uint64), role (string) and the full
// *utils.Claims are stored in the context under KeyAccountID, KeyRole and
// KeyClaims.  Any failure is a 401; the reason is not disclosed.
func JWTAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := v.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			id, err := claims.AccountID()
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(KeyAccountID, id)
			c.Set(KeyRole, claims.Role)
			c.Set(KeyClaims, claims)
			return next(c)
		}
	}
}

// AccountID returns the id stored by JWTAuth, or false on unauthenticated
// requests.
func AccountID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(KeyAccountID).(uint64)
	return id, ok
}
