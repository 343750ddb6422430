package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ai-sales-brain/internal/auth"
	"ai-sales-brain/utils"
)

type AuthMiddleware struct {
	tokens *auth.TokenService
}

func NewAuthMiddleware(tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth validates the bearer token and stores the caller's identity
// in the request context. Every document and chat route sits behind this;
// the user ID it resolves is what scopes retrieval.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			utils.RespondWithUnauthorized(c, "Authentication token is required")
			c.Abort()
			return
		}

		claims, err := a.tokens.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			utils.RespondWithUnauthorized(c, "Invalid token subject")
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("user_id", userID)
		c.Next()
	}
}

// GetUserID returns the authenticated user's ID, or false when the request
// never passed RequireAuth.
func GetUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok
}

// RequireUserID aborts with 401 unless an authenticated user is present.
func RequireUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := GetUserID(c)
	if !ok {
		utils.RespondWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		c.Abort()
	}
	return id, ok
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return header
}
