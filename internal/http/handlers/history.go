package handlers

import (
	"net/http"

	"mines_wager/internal/service"

	"github.com/gin-gonic/gin"
)

type historyQuery struct {
	Scope    string `form:"scope"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// GetHistory GET /api/v1/history?scope=mine|all&page=&page_size=
// scope=mine (the default) needs a bearer token; scope=all is public.
func (h *Handler) GetHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}

	page, err := h.Engine.History(c.Request.Context(), service.HistoryRequest{
		PlayerID: getPlayerID(c),
		Scope:    service.HistoryScope(q.Scope),
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}
