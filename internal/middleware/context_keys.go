package middleware

import "github.com/gin-gonic/gin"

// userIDKey stores the authenticated user's ID. The custom type keeps the
// key from colliding with other context values.
const userIDKey = contextKey("userID")

// GetUserIDFromContext retrieves the authenticated user ID set by the auth
// middleware, checking the Gin context first and the request context as a
// fallback.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if v, exists := c.Get(string(userIDKey)); exists {
		userID, ok := v.(string)
		return userID, ok
	}
	if v := c.Request.Context().Value(userIDKey); v != nil {
		userID, ok := v.(string)
		return userID, ok
	}
	return "", false
}
