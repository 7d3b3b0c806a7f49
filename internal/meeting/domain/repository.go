package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, m *Meeting) error
	Update(ctx context.Context, db *gorm.DB, m *Meeting) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Meeting, error)
	// FindActiveByRoom returns the most recently created ACTIVE meeting for
	// the room, or nil.
	FindActiveByRoom(ctx context.Context, db *gorm.DB, room string) (*Meeting, error)
	// FindResolvableByRoom is the transcript-path lookup: ACTIVE or ENDED,
	// most recent first.
	FindResolvableByRoom(ctx context.Context, db *gorm.DB, room string) (*Meeting, error)
	FindScheduledByRoom(ctx context.Context, db *gorm.DB, room string) (*Meeting, error)
	FindLatestByRoom(ctx context.Context, db *gorm.DB, room string) (*Meeting, error)
	CountByRoom(ctx context.Context, db *gorm.DB, room string) (int64, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Meeting, error)
	ListByHost(ctx context.Context, db *gorm.DB, hostID string) ([]Meeting, error)
}
