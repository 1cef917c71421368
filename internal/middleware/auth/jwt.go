package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminUser is the signed-in administrator behind a request
type AdminUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type contextKey string

const (
	userContextKey contextKey = "admin_user"

	accessTokenKey = "access_token"
)

// JWTConfig holds the configuration for the admin middleware
type JWTConfig struct {
	// Secret is the Supabase project JWT secret.
	Secret      string
	SessionName string
	Logger      *zap.Logger
	SkipPaths   []string
}

// JWTMiddleware requires a Supabase access token, taken from the admin
// cookie session or, failing that, a Bearer Authorization header.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, skipPath := range config.SkipPaths {
				if strings.HasPrefix(path, skipPath) {
					return next(c)
				}
			}

			if config.Secret == "" {
				config.Logger.Error("Admin JWT secret is not configured", zap.String("path", path))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{
					"error": "Admin authentication is not configured",
					"code":  "CONFIG_MISSING",
				})
			}

			tokenString := tokenFromSession(c, config.SessionName)
			if tokenString == "" {
				authHeader := c.Request().Header.Get("Authorization")
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
				if tokenString == authHeader {
					tokenString = ""
				}
			}
			if tokenString == "" {
				config.Logger.Warn("Missing admin session",
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Authentication required",
					"code":  "AUTH_REQUIRED",
				})
			}

			user, err := ParseAccessToken(tokenString, config.Secret)
			if err != nil {
				config.Logger.Warn("JWT validation failed",
					zap.Error(err),
					zap.String("path", path))
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "Invalid or expired token",
					"code":  "INVALID_TOKEN",
				})
			}

			ctx := context.WithValue(c.Request().Context(), userContextKey, user)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("user_id", user.UserID)

			config.Logger.Debug("Admin authenticated",
				zap.String("user_id", user.UserID),
				zap.String("path", path))

			return next(c)
		}
	}
}

// ParseAccessToken verifies an HS256 Supabase access token
func ParseAccessToken(tokenString, secret string) (*AdminUser, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &AdminUser{UserID: sub, Email: email, Role: role}, nil
}

func tokenFromSession(c echo.Context, name string) string {
	if name == "" {
		return ""
	}
	sess, err := session.Get(name, c)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[accessTokenKey].(string)
	return token
}

// GetUserFromContext extracts the admin user from the request context
func GetUserFromContext(c echo.Context) (*AdminUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AdminUser)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user found in context")
	}
	return user, nil
}
