package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RoleAdmin is the role claim required for user administration.
const RoleAdmin = "admin"

// RBAC lets the request through only when the "role" claim set by Auth is
// one of allowedRoles. Denials are logged with the caller's username.
func RBAC(log zerolog.Logger, allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				username, _ := c.Get("username").(string)
				log.Warn().
					Str("username", username).
					Str("role", role).
					Str("path", c.Path()).
					Msg("access denied")
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
