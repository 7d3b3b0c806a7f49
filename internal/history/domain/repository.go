package domain

import (
	"context"

	meetingdomain "github.com/roomloghq/roomlog/internal/meeting/domain"
	"gorm.io/gorm"
)

type Repository interface {
	ListHostedByUser(ctx context.Context, db *gorm.DB, userID string) ([]meetingdomain.Meeting, error)
	ListAttendedByUser(ctx context.Context, db *gorm.DB, userID string) ([]AttendedRow, error)
}
