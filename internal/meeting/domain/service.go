package domain

import (
	"context"
	"errors"

	"github.com/roomloghq/roomlog/internal/event"
)

// Service applies meeting lifecycle transitions with tolerance for missing
// or reordered predecessor events, and resolves room names to the durable
// identity of the occurrence currently in flight.
type Service interface {
	HandleEvent(ctx context.Context, evt event.Envelope) error

	// CheckAndEndIfEmpty ends the room's active meeting when no participant
	// remains present. Invoked after every participant-left transition.
	CheckAndEndIfEmpty(ctx context.Context, room string) error

	// EnsureActiveForRoom returns the room's active meeting, creating a
	// minimal ACTIVE stub when none exists yet.
	EnsureActiveForRoom(ctx context.Context, room string) (*Meeting, error)

	// ResolveActive maps a room name to its currently-active meeting, or nil.
	ResolveActive(ctx context.Context, room string) (*Meeting, error)
	// ResolveForTranscript additionally considers ENDED meetings resolvable,
	// because transcription-stop events can trail the meeting-ended event.
	ResolveForTranscript(ctx context.Context, room string) (*Meeting, error)

	GetByID(ctx context.Context, id string) (*Meeting, error)
	GetByRoom(ctx context.Context, room string) (*Meeting, error)
	ListActive(ctx context.Context) ([]Meeting, error)
	ListByHost(ctx context.Context, hostID string) ([]Meeting, error)
}

var (
	ErrMissingMeetingID     = errors.New("missing_meeting_id")
	ErrMissingRoomName      = errors.New("missing_room_name")
	ErrUnsupportedEventType = errors.New("unsupported_event_type")
	ErrNotFound             = errors.New("meeting_not_found")
)
