package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomloghq/roomlog/pkg/db/pagination"
)

func (s *Server) getHistory(c *gin.Context) {
	var page pagination.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination"})
		return
	}

	resp, err := s.historySvc.ListForUser(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getHistoryStats(c *gin.Context) {
	stats, err := s.historySvc.StatsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
