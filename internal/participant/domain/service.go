package domain

import (
	"context"
	"errors"

	"github.com/roomloghq/roomlog/internal/event"
)

// Service applies participant join/leave/update transitions.
type Service interface {
	HandleEvent(ctx context.Context, evt event.Envelope) error
	ListByMeeting(ctx context.Context, meetingID string) ([]Participant, error)
	CountPresent(ctx context.Context, meetingID string) (int64, error)
}

var (
	ErrMissingParticipantID = errors.New("missing_participant_id")
	ErrMissingRoomName      = errors.New("missing_room_name")
	ErrNotFound             = errors.New("participant_not_found")
	ErrUnsupportedEventType = errors.New("unsupported_event_type")
)

// SpeakerSlots bounds the diarization slot space. Collisions past ~100
// distinct speakers in one meeting are accepted.
const SpeakerSlots = 100

// SpeakerSlot folds the runtime's opaque per-session participant identifier
// into a bounded diarization slot.
func SpeakerSlot(sessionID string) int {
	h := 0
	for _, c := range sessionID {
		h = h*31 + int(c)
	}
	slot := h % SpeakerSlots
	if slot < 0 {
		slot += SpeakerSlots
	}
	return slot
}
