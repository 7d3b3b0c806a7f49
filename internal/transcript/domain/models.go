// Package domain contains persistence models for streamed transcription.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the compile state of a meeting transcript.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Transcript holds the compiled speech-to-text output of one meeting.
type Transcript struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	MeetingID string       `json:"meeting_id" gorm:"type:text;not null;uniqueIndex:ux_transcripts_meeting"`
	Status    Status       `json:"status" gorm:"type:text;not null;default:'PENDING'"`
	Language  string       `json:"language" gorm:"type:text;not null;default:'en'"`
	FullText  *string      `json:"full_text,omitempty" gorm:"type:text"`
	WordCount *int         `json:"word_count,omitempty"`
	StartedAt *time.Time   `json:"started_at,omitempty"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Transcript) TableName() string { return "transcripts" }

// Segment is a single diarized chunk of speech. Unique per
// (TranscriptID, MessageID); IsFinal only ever transitions false to true.
type Segment struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	TranscriptID  snowflake.ID `json:"transcript_id" gorm:"not null;uniqueIndex:ux_segments_transcript_message,priority:1"`
	MessageID     string       `json:"message_id" gorm:"type:text;not null;uniqueIndex:ux_segments_transcript_message,priority:2"`
	SpeakerID     int          `json:"speaker_id" gorm:"not null;default:0"`
	SpeakerName   *string      `json:"speaker_name,omitempty" gorm:"type:text"`
	SpeakerUserID *string      `json:"speaker_user_id,omitempty" gorm:"type:text"`
	Text          string       `json:"text" gorm:"type:text;not null;default:''"`
	IsFinal       bool         `json:"is_final" gorm:"not null;default:false"`
	Confidence    *float64     `json:"confidence,omitempty"`
	ReceivedAt    time.Time    `json:"received_at" gorm:"not null;index:ix_segments_received"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Segment) TableName() string { return "transcript_segments" }

// PendingEvent is a transcription event deferred because its meeting could
// not be resolved yet. ExpiresAt is a fixed TTL from first enqueue.
type PendingEvent struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	RoomName   string            `json:"room_name" gorm:"type:text;not null;index:ix_pending_events_room"`
	EventID    string            `json:"event_id" gorm:"type:text;not null;uniqueIndex:ux_pending_events_event_id"`
	EventType  string            `json:"event_type" gorm:"type:text;not null"`
	Payload    datatypes.JSONMap `json:"payload" gorm:"type:jsonb"`
	OccurredAt time.Time         `json:"occurred_at" gorm:"not null"`
	ExpiresAt  time.Time         `json:"expires_at" gorm:"not null"`
	RetryCount int               `json:"retry_count" gorm:"not null;default:0"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PendingEvent) TableName() string { return "pending_events" }
