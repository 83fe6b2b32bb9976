package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	start time.Time
	count int
}

// clientKey limits authenticated players per player and everyone else per IP
func clientKey(c *gin.Context) string {
	if playerID := c.GetString(PlayerIDKey); playerID != "" {
		return "player:" + playerID
	}
	return c.ClientIP()
}

// SimpleRateLimit blocks clients that send more than maxRequests per window.
// State is per process, used when Redis is not configured.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string]*clientInfo)
	)

	return func(c *gin.Context) {
		ident := clientKey(c)
		now := time.Now()

		mu.Lock()
		ci, ok := clients[ident]
		if !ok || now.Sub(ci.start) > window {
			ci = &clientInfo{start: now}
			clients[ident] = ci
		}
		ci.count++
		count := ci.count

		// drop stale windows so the map doesn't grow without bound
		if len(clients) > 10000 {
			for k, v := range clients {
				if now.Sub(v.start) > window {
					delete(clients, k)
				}
			}
		}
		mu.Unlock()

		if count > maxRequests {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
