package domain

import (
	"context"
	"errors"

	"github.com/roomloghq/roomlog/internal/event"
)

// Service compiles streamed speech-to-text chunks into a final transcript.
// Events whose meeting cannot be resolved yet are deferred to the pending
// queue instead of dropped; this is the correctness-critical divergence from
// the generic router path.
type Service interface {
	// HandleEvent processes a transcription event. queued reports that the
	// event was deferred because the meeting is not resolvable yet.
	HandleEvent(ctx context.Context, evt event.Envelope) (queued bool, err error)

	// CompileFullText joins all finalized segments into the meeting's final
	// transcript. Idempotent; completes with empty text when no finalized
	// segment exists.
	CompileFullText(ctx context.Context, meetingID string) (*Transcript, error)

	QueuePending(ctx context.Context, room string, evt event.Envelope) error
	// ReplayPending re-invokes the normal handler for every queued event of
	// the room, deleting entries that process and requeueing the rest.
	// Returns the event ids that replayed so the caller can settle its own
	// bookkeeping for them.
	ReplayPending(ctx context.Context, room string) (replayed []string, err error)
	CleanupExpired(ctx context.Context) (int64, error)

	// ReapOrphans force-completes transcripts stuck in PROCESSING beyond the
	// configured threshold.
	ReapOrphans(ctx context.Context) (int, error)

	GetByMeeting(ctx context.Context, meetingID string) (*Transcript, []Segment, error)
}

var (
	ErrMissingMessageID     = errors.New("missing_message_id")
	ErrMissingRoomName      = errors.New("missing_room_name")
	ErrNotFound             = errors.New("transcript_not_found")
	ErrUnsupportedEventType = errors.New("unsupported_event_type")
)

// Confidence proxies: the runtime does not report real confidence values.
const (
	ConfidenceFinal  = 1.0
	ConfidenceStable = 0.8
)
