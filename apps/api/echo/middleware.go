package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

// principalMiddleware turns the verified access token into the request principal.
// Refresh tokens, revoked tokens and deactivated accounts are rejected.
func principalMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, claims, err := getContextToken(ctx)
			if err != nil {
				return err
			}
			if claims.TokenType != accessTokenType {
				return errInvalidTokenType
			}

			c := ctx.Request().Context()
			revoked, err := svc.IsRevoked(c, token.Raw)
			if err != nil {
				return errors.Wrap(err, "checking token blacklist")
			}
			if revoked {
				return errTokenRevoked
			}

			p, err := claims.principal()
			if err != nil {
				return errUnauthorized
			}
			if _, err = svc.GetActiveAccount(c, p); err != nil {
				if core.IsNotFound(err) {
					return errUnauthorized
				}
				return err
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

// roleMiddleware lets through the principals playing one of roles.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return err
			}
			if user.HasAnyRole(p, roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleAdmin)
}

// staffMiddleware admits admins and teachers.
func staffMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleAdmin, user.RoleTeacher)
}
