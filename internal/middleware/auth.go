package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ClaimsKey is where AuthGuard stores the verified token claims on the gin
// context.
const ClaimsKey = "claims"

var errNoBearer = errors.New("authorization header missing or malformed")

// AuthGuard validates the bearer token and, when roles are given, requires
// the token's role claim to match one of them. Rejections carry a bilingual
// body like the rest of the storefront surface.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, secret)
		if err != nil {
			abortLocalized(c, http.StatusUnauthorized,
				"unauthorized", "غير مصرح بالدخول")
			return
		}

		if len(allowedRoles) > 0 && !roleAllowed(claims, allowedRoles) {
			abortLocalized(c, http.StatusForbidden,
				"forbidden", "غير مسموح بهذا الإجراء")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// AdminAuth guards the admin console endpoints.
func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, "admin")
}

// bearerClaims extracts and verifies the Authorization bearer token. Only
// HS256 signatures are accepted; the signing method is pinned so a token
// with alg=none or an RSA header can never pass.
func bearerClaims(c *gin.Context, secret string) (jwt.MapClaims, error) {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errNoBearer
	}

	token, err := jwt.Parse(
		parts[1],
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func roleAllowed(claims jwt.MapClaims, allowed []string) bool {
	role, _ := claims["role"].(string)
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

func abortLocalized(c *gin.Context, status int, message, messageAr string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message, "errorAr": messageAr})
}
