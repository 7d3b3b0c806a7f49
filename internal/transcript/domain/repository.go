package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, t *Transcript) error
	Update(ctx context.Context, db *gorm.DB, t *Transcript) error
	FindByMeeting(ctx context.Context, db *gorm.DB, meetingID string) (*Transcript, error)
	// ListStuckProcessing returns transcripts in PROCESSING whose startedAt
	// is older than the cutoff.
	ListStuckProcessing(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]Transcript, error)

	InsertSegment(ctx context.Context, db *gorm.DB, seg *Segment) error
	UpdateSegment(ctx context.Context, db *gorm.DB, seg *Segment) error
	FindSegment(ctx context.Context, db *gorm.DB, transcriptID snowflake.ID, messageID string) (*Segment, error)
	ListSegments(ctx context.Context, db *gorm.DB, transcriptID snowflake.ID) ([]Segment, error)
	// ListFinalSegments returns finalized segments in receive order.
	ListFinalSegments(ctx context.Context, db *gorm.DB, transcriptID snowflake.ID) ([]Segment, error)
}

type PendingRepository interface {
	Insert(ctx context.Context, db *gorm.DB, pe *PendingEvent) error
	// IncrementRetry bumps retry_count for an already queued event id,
	// keeping the original expiry.
	IncrementRetry(ctx context.Context, db *gorm.DB, eventID string, now time.Time) error
	ListByRoom(ctx context.Context, db *gorm.DB, room string, now time.Time) ([]PendingEvent, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
