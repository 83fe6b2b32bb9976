package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const PlayerIDKey = "player_id"

// TokenParser resolves a bearer token to a player id
type TokenParser interface {
	Parse(token string) (string, error)
}

// OptionalAuth sets PlayerIDKey when a valid bearer token (or ?token=) is
// present and lets anonymous requests through otherwise
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			token = strings.TrimPrefix(h, "Bearer ")
		}

		if token != "" {
			if playerID, err := tokens.Parse(token); err == nil {
				c.Set(PlayerIDKey, playerID)
			}
		}
		c.Next()
	}
}
