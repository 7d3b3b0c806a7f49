// Package domain contains persistence models for meeting occurrences.
package domain

import "time"

// Status is the lifecycle state of a meeting occurrence.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusActive    Status = "ACTIVE"
	StatusEnded     Status = "ENDED"
	StatusCancelled Status = "CANCELLED"
)

// Meeting is one occurrence of a room. A room name is reused across many
// occurrences over time; OccurrenceSeq makes the disambiguation structural.
// Invariant: at most one ACTIVE meeting per room at any instant.
type Meeting struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	RoomName      string     `json:"room_name" gorm:"type:text;not null;index:ix_meetings_room_status,priority:1"`
	OccurrenceSeq int        `json:"occurrence_seq" gorm:"not null;default:1"`
	Title         string     `json:"title" gorm:"type:text;not null;default:''"`
	Description   *string    `json:"description,omitempty" gorm:"type:text"`
	HostID        *string    `json:"host_id,omitempty" gorm:"type:text;index"`
	Status        Status     `json:"status" gorm:"type:text;not null;index:ix_meetings_room_status,priority:2"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Duration      *int64     `json:"duration,omitempty"` // seconds
	CreatedAt     time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Meeting) TableName() string { return "meetings" }
