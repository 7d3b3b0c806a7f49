package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, p *Participant) error
	Update(ctx context.Context, db *gorm.DB, p *Participant) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Participant, error)
	ListByMeeting(ctx context.Context, db *gorm.DB, meetingID string) ([]Participant, error)
	// CountPresentByMeeting counts participants that have not left yet.
	CountPresentByMeeting(ctx context.Context, db *gorm.DB, meetingID string) (int64, error)
}
