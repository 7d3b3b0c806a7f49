package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomloghq/roomlog/internal/event"
	eventlogdomain "github.com/roomloghq/roomlog/internal/eventlog/domain"
	"github.com/roomloghq/roomlog/pkg/db/pagination"
)

// ingestEvents accepts one event or a batch. Batch elements process in
// order; a malformed element fails the whole request before any processing.
func (s *Server) ingestEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	var evts []event.Envelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &evts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event batch"})
			return
		}
	} else {
		var evt event.Envelope
		if err := json.Unmarshal(trimmed, &evt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
			return
		}
		evts = append(evts, evt)
	}

	for i := range evts {
		if evts[i].EventID == "" || evts[i].Type == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "eventId and type are required"})
			return
		}
	}

	results, err := s.eventlogSvc.ProcessBatch(c.Request.Context(), evts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) listEvents(c *gin.Context) {
	var page pagination.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination"})
		return
	}
	page = page.Normalize()

	status := eventlogdomain.Status(c.Query("status"))
	events, err := s.eventlogSvc.List(c.Request.Context(), status, page.Offset, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) retryEvent(c *gin.Context) {
	result, err := s.eventlogSvc.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
