package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
)

func (s *Server) listActiveMeetings(c *gin.Context) {
	meetings, err := s.meetingSvc.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meetings": meetings})
}

func (s *Server) getMeeting(c *gin.Context) {
	meeting, err := s.meetingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if meeting == nil {
		respondError(c, meetingdomain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (s *Server) getMeetingByRoom(c *gin.Context) {
	meeting, err := s.meetingSvc.GetByRoom(c.Request.Context(), c.Param("room"))
	if err != nil {
		respondError(c, err)
		return
	}
	if meeting == nil {
		respondError(c, meetingdomain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, meeting)
}

func (s *Server) listParticipants(c *gin.Context) {
	participants, err := s.participantSvc.ListByMeeting(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (s *Server) getTranscript(c *gin.Context) {
	transcript, segments, err := s.transcriptSvc.GetByMeeting(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transcript": transcript,
		"segments":   segments,
	})
}
