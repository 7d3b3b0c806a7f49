package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	eventlogdomain "github.com/roomloghq/roomlog/internal/eventlog/domain"
	historydomain "github.com/roomloghq/roomlog/internal/history/domain"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	participantdomain "github.com/roomloghq/roomlog/internal/participant/domain"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
)

func respondError(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, meetingdomain.ErrNotFound),
		errors.Is(err, participantdomain.ErrNotFound),
		errors.Is(err, transcriptdomain.ErrNotFound),
		errors.Is(err, eventlogdomain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, eventlogdomain.ErrNotRetryable):
		return http.StatusConflict
	case errors.Is(err, eventlogdomain.ErrMissingEventID),
		errors.Is(err, eventlogdomain.ErrMissingType),
		errors.Is(err, historydomain.ErrMissingUserID),
		errors.Is(err, meetingdomain.ErrMissingMeetingID),
		errors.Is(err, meetingdomain.ErrMissingRoomName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
