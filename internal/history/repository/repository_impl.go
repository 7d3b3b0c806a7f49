package repository

import (
	"context"

	historydomain "github.com/roomloghq/roomlog/internal/history/domain"
	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() historydomain.Repository {
	return &repo{}
}

func (r *repo) ListHostedByUser(ctx context.Context, db *gorm.DB, userID string) ([]meetingdomain.Meeting, error) {
	var meetings []meetingdomain.Meeting
	err := db.WithContext(ctx).
		Where("host_id = ?", userID).
		Find(&meetings).Error
	return meetings, err
}

func (r *repo) ListAttendedByUser(ctx context.Context, db *gorm.DB, userID string) ([]historydomain.AttendedRow, error) {
	var rows []historydomain.AttendedRow
	err := db.WithContext(ctx).
		Table("participants").
		Select(`meetings.id AS meeting_id,
			meetings.room_name,
			meetings.title,
			meetings.status,
			meetings.scheduled_at,
			meetings.started_at,
			meetings.ended_at,
			meetings.duration,
			meetings.created_at,
			participants.joined_at AS attended_joined_at,
			participants.left_at AS attended_left_at`).
		Joins("JOIN meetings ON meetings.id = participants.meeting_id").
		Where("participants.user_id = ?", userID).
		Scan(&rows).Error
	return rows, err
}
