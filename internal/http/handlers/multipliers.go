package handlers

import (
	"net/http"

	"mines_wager/internal/game"

	"github.com/gin-gonic/gin"
)

type multipliersQuery struct {
	Grid  int `form:"grid" binding:"required"`
	Mines int `form:"mines" binding:"required"`
}

// Multipliers GET /api/v1/multipliers?grid=&mines=
func (h *Handler) Multipliers(c *gin.Context) {
	var q multipliersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grid and mines are required"})
		return
	}

	table, err := game.Multipliers(q.Grid, q.Mines)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gridSize":          q.Grid,
		"mineCount":         q.Mines,
		"profitMultipliers": table,
	})
}
