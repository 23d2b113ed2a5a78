package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ticketholds/internal/shared/config"
	"ticketholds/internal/shared/utils/response"
	"ticketholds/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in the access token
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Context keys set by the auth middleware
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

var (
	errMissingHeader = errors.New("authorization header is required")
	errHeaderFormat  = errors.New("authorization header format must be Bearer {token}")
	errInvalidToken  = errors.New("invalid or expired token")
	errTokenType     = errors.New("invalid token type")
)

// parseAccessToken validates the bearer token and returns its claims
func parseAccessToken(authHeader, secret string) (jwt.MapClaims, error) {
	if authHeader == "" {
		return nil, errMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errHeaderFormat
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
		return nil, errTokenType
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	c.Set(ContextUserID, claims["user_id"])
	c.Set(ContextUserEmail, claims["email"])
	c.Set(ContextUserRole, claims["role"])
}

// JWTAuthWithConfig rejects requests without a valid access token
func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseAccessToken(c.GetHeader("Authorization"), cfg.JWT.Secret)
		if err != nil {
			logger.GetDefault().LogAuthFailure(c.Request.Context(), err.Error(), c.ClientIP())
			response.RespondJSON(c, "error", http.StatusUnauthorized, err.Error(), nil, nil)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthWithConfig validates a token if present but doesn't require it
func OptionalAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseAccessToken(c.GetHeader("Authorization"), cfg.JWT.Secret)
		if err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// Authenticate picks JWTAuth or OptionalAuth depending on AUTH_REQUIRED
func Authenticate(cfg *config.Config) gin.HandlerFunc {
	if cfg.JWT.AuthRequired {
		return JWTAuthWithConfig(cfg)
	}
	return OptionalAuthWithConfig(cfg)
}

// RequireRoles checks that the caller has any of the required roles.
// When authentication is optional and no token was sent, the request passes.
func RequireRoles(cfg *config.Config, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			if !cfg.JWT.AuthRequired {
				c.Next()
				return
			}
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// RequireAdmin requires the admin role
func RequireAdmin(cfg *config.Config) gin.HandlerFunc {
	return RequireRoles(cfg, RoleAdmin)
}

// UserID returns the authenticated caller's id, or "" for anonymous requests
func UserID(c *gin.Context) string {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
