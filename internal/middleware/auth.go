package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/cartz/cartz-backend/internal/models"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
)

// parseToken validates an HS256 access token and returns its claims.
func parseToken(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	if len(secret) == 0 {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if typ, ok := claims["typ"].(string); !ok || typ != "access" {
		return nil, errors.New("invalid token type")
	}
	return claims, nil
}

// RequireAuth resolves the bearer token and stores the caller's user ID
// and role in the request context.
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}

		claims, err := parseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		role, _ := claims["role"].(string)

		c.Set(UserContextKey, sub)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

// RequireAdmin gates a route on the role claim carried in the token.
// Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated caller's user ID.
func GetUserID(c *gin.Context) (string, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("user ID not found in context")
}

// GetRole returns the authenticated caller's role, or empty.
func GetRole(c *gin.Context) string {
	if val, ok := c.Get(RoleContextKey); ok {
		if role, ok := val.(string); ok {
			return role
		}
	}
	return ""
}
