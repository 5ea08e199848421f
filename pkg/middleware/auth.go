package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/bizledger/pkg/jwtutil"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

const claimsKey = "user"

// Claims returns the token claims stored by JWTAuthMiddleware
func Claims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims, ok && claims != nil
}

// SetClaims replaces the claims seen by the rest of the chain
func SetClaims(c echo.Context, claims *jwtutil.UserClaims) {
	c.Set(claimsKey, claims)
}

// JWTAuthMiddleware creates a middleware that validates JWT tokens
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Extract the token from the Authorization header
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing authorization header"})
			}

			// Check if the header format is valid
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			}

			SetClaims(c, claims)
			log.Debug("JWT token validated successfully",
				zap.String("user_id", claims.UserID),
				zap.String("tenant_id", claims.TenantID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// RequireTenant rejects tokens that carry no tenant
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Claims(c)
			if !ok || claims.TenantID == "" {
				logger.FromEcho(c).Warn("Missing tenant in token")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Tenant context is required"})
			}
			return next(c)
		}
	}
}

// RequireSuperAdmin allows platform administrators only
func RequireSuperAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Claims(c)
			if !ok || !claims.SuperAdmin {
				logger.FromEcho(c).Warn("Super admin required")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Super admin access required"})
			}
			return next(c)
		}
	}
}

// RequireRole allows the listed tenant roles. Super admins always pass.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Claims(c)
			if !ok || (!claims.SuperAdmin && !allowed[claims.Role]) {
				role := ""
				if ok {
					role = claims.Role
				}
				logger.FromEcho(c).Warn("Role not permitted",
					zap.String("role", role),
					zap.String("path", c.Path()))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "You don't have permission to perform this action"})
			}
			return next(c)
		}
	}
}
