package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role == user.RoleAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// permMiddleware allows the request through if the claims' role holds the
// (resource, action) permission. Admins are implicitly allowed everything.
func permMiddleware(svc *user.Service, resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if svc.HasPerm(claims.Role, resource, action) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
