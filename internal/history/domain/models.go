package domain

import (
	"time"

	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	"github.com/roomloghq/roomlog/pkg/db/pagination"
)

const (
	RoleHost     = "HOST"
	RoleAttendee = "ATTENDEE"
)

// Entry is one meeting in a user's history. A meeting both hosted and
// attended by the user appears once, with the host role.
type Entry struct {
	MeetingID   string               `json:"meeting_id"`
	RoomName    string               `json:"room_name"`
	Title       string               `json:"title"`
	Status      meetingdomain.Status `json:"status"`
	Role        string               `json:"role"`
	ScheduledAt *time.Time           `json:"scheduled_at,omitempty"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	EndedAt     *time.Time           `json:"ended_at,omitempty"`
	Duration    *int64               `json:"duration,omitempty"`
	JoinedAt    *time.Time           `json:"joined_at,omitempty"`
	LeftAt      *time.Time           `json:"left_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type ListResponse struct {
	Entries  []Entry             `json:"entries"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// Stats aggregates a user's meeting history.
type Stats struct {
	TotalMeetings int   `json:"total_meetings"`
	HostedCount   int   `json:"hosted_count"`
	AttendedCount int   `json:"attended_count"`
	TotalDuration int64 `json:"total_duration"` // seconds, ended meetings only
}

// AttendedRow is the join projection of a participant row onto its meeting.
type AttendedRow struct {
	MeetingID   string               `gorm:"column:meeting_id"`
	RoomName    string               `gorm:"column:room_name"`
	Title       string               `gorm:"column:title"`
	Status      meetingdomain.Status `gorm:"column:status"`
	ScheduledAt *time.Time           `gorm:"column:scheduled_at"`
	StartedAt   *time.Time           `gorm:"column:started_at"`
	EndedAt     *time.Time           `gorm:"column:ended_at"`
	Duration    *int64               `gorm:"column:duration"`
	CreatedAt   time.Time            `gorm:"column:created_at"`
	JoinedAt    *time.Time           `gorm:"column:attended_joined_at"`
	LeftAt      *time.Time           `gorm:"column:attended_left_at"`
}
