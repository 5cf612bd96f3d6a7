package echoapi

import (
	"github.com/labstack/echo/v4"
)

// roleMiddleware lets through only principals holding one of `roles`.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p := getContextPrincipal(ctx)
			if p.ID == "" {
				return errUnauthorized
			}
			for _, role := range roles {
				if p.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
