package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProcessed Status = "PROCESSED"
	StatusQueued    Status = "QUEUED"
	StatusFailed    Status = "FAILED"
)

// Event is one row of the processed-event ledger. The unique EventID index
// is the deduplication mechanism: a second insert of the same external event
// id fails with a duplicate-key error regardless of the first row's status,
// which gives the pipeline its at-most-once guarantee.
type Event struct {
	ID          snowflake.ID      `json:"id,string" gorm:"primaryKey"`
	EventID     string            `json:"eventId" gorm:"uniqueIndex:ux_events_event_id"`
	Type        string            `json:"type"`
	Family      string            `json:"family"`
	RoomName    string            `json:"roomName" gorm:"index"`
	Payload     datatypes.JSONMap `json:"payload"`
	Status      Status            `json:"status"`
	Error       *string           `json:"error,omitempty"`
	OccurredAt  *time.Time        `json:"occurredAt,omitempty"`
	ProcessedAt *time.Time        `json:"processedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (Event) TableName() string { return "events" }
