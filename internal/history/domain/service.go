package domain

import (
	"context"
	"errors"

	"github.com/roomloghq/roomlog/pkg/db/pagination"
)

// Service answers per-user meeting history queries. Merging and ordering
// happen in memory: hosted and attended sets for one user stay small.
type Service interface {
	ListForUser(ctx context.Context, userID string, page pagination.Page) (*ListResponse, error)
	StatsForUser(ctx context.Context, userID string) (*Stats, error)
}

var ErrMissingUserID = errors.New("missing_user_id")
