package domain

import (
	"context"
	"errors"

	"github.com/roomloghq/roomlog/internal/event"
)

// Result reports the outcome of routing one inbound event.
type Result struct {
	EventID          string `json:"eventId"`
	Status           Status `json:"status"`
	AlreadyProcessed bool   `json:"alreadyProcessed"`
	Dropped          bool   `json:"dropped,omitempty"`
	Queued           bool   `json:"queued,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Service is the ingestion router: deduplicate, classify, dispatch, record.
type Service interface {
	// Process handles one event end to end. A handler failure is recorded on
	// the ledger row and reported in the Result, not returned as an error;
	// the error return covers infrastructure failures only.
	Process(ctx context.Context, evt event.Envelope) (Result, error)

	// ProcessBatch handles events strictly in slice order. Sequential
	// processing within a batch is the only ordering guarantee offered.
	ProcessBatch(ctx context.Context, evts []event.Envelope) ([]Result, error)

	// Retry re-dispatches a previously FAILED ledger entry.
	Retry(ctx context.Context, eventID string) (Result, error)

	List(ctx context.Context, status Status, offset, limit int) ([]Event, error)
}

var (
	ErrMissingEventID = errors.New("missing_event_id")
	ErrMissingType    = errors.New("missing_event_type")
	ErrNotFound       = errors.New("event_not_found")
	ErrNotRetryable   = errors.New("event_not_retryable")
)
