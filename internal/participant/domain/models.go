// Package domain contains persistence models for meeting participants.
package domain

import "time"

// Role of a participant within a meeting.
type Role string

const (
	RoleHost        Role = "HOST"
	RoleCoHost      Role = "CO_HOST"
	RoleParticipant Role = "PARTICIPANT"
)

// ParseRole normalizes an inbound role tag, defaulting to PARTICIPANT.
func ParseRole(raw string) Role {
	switch Role(raw) {
	case RoleHost:
		return RoleHost
	case RoleCoHost:
		return RoleCoHost
	default:
		return RoleParticipant
	}
}

// Participant is one session of a person inside a meeting occurrence. The ID
// is the runtime's external participant identifier, stable for one session.
// Rows are marked left but never deleted; JoinedAt is set once at creation
// and never overwritten by duplicate join events.
type Participant struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	MeetingID   string     `json:"meeting_id" gorm:"type:text;not null;index"`
	UserID      *string    `json:"user_id,omitempty" gorm:"type:text;index"`
	DisplayName string     `json:"display_name" gorm:"type:text;not null;default:''"`
	Email       *string    `json:"email,omitempty" gorm:"type:text"`
	Role        Role       `json:"role" gorm:"type:text;not null;default:'PARTICIPANT'"`
	SpeakerID   *int       `json:"speaker_id,omitempty"`
	JoinedAt    time.Time  `json:"joined_at" gorm:"not null"`
	LeftAt      *time.Time `json:"left_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Participant) TableName() string { return "participants" }
