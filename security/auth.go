package security

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v5"

	"event-market/models"
)

const principalContextKey = "principal"

// GenerateToken issues an HMAC token carrying the caller's role and owned
// entity id. Used by the seeder and demo tooling; real deployments point the
// middleware at the identity provider's signing key instead.
func GenerateToken(secret string, role models.Role, entityID string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role":      string(role),
		"entity_id": entityID,
		"exp":       time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

func parseToken(secret, raw string) (models.Principal, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return models.Principal{}, errors.New("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.Principal{}, errors.New("invalid token claims")
	}
	role, _ := claims["role"].(string)
	entityID, _ := claims["entity_id"].(string)
	if role == "" || entityID == "" {
		return models.Principal{}, errors.New("incomplete token claims")
	}
	return models.Principal{Role: models.Role(role), EntityID: entityID}, nil
}

// Authenticate resolves the bearer token to a Principal and stores it on the
// request context. Requests without a token continue as anonymous; role
// enforcement happens in RequireRole.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := models.Principal{Role: models.RoleAnonymous}

			header := c.Request().Header.Get("Authorization")
			if raw, ok := strings.CutPrefix(header, "Bearer "); ok {
				p, err := parseToken(secret, raw)
				if err != nil {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"status": "error",
						"error":  "invalid or expired token",
					})
				}
				principal = p
			}

			c.Set(principalContextKey, principal)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose principal does not carry the wanted role.
func RequireRole(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := PrincipalFrom(c)
			if principal.Role != role {
				return c.JSON(http.StatusForbidden, map[string]string{
					"status": "error",
					"error":  "insufficient permissions",
				})
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the resolved caller identity, defaulting to anonymous.
func PrincipalFrom(c echo.Context) models.Principal {
	if principal, ok := c.Get(principalContextKey).(models.Principal); ok {
		return principal
	}
	return models.Principal{Role: models.RoleAnonymous}
}
