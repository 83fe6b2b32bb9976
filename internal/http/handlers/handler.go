package handlers

import (
	"errors"
	"net/http"

	"mines_wager/internal/http/middleware"
	"mines_wager/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Engine *service.Engine
}

func NewHandler(engine *service.Engine) *Handler {
	return &Handler{Engine: engine}
}

// getPlayerID returns the authenticated player, empty for anonymous requests
func getPlayerID(c *gin.Context) string {
	return c.GetString(middleware.PlayerIDKey)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUndefinedUser):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case service.IsClientError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
