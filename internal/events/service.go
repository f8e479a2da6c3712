// Package events appends timestamped potty events and summarizes a user's
// recent history.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/ayush/potty-buddy/backend/internal/apperr"
	"github.com/ayush/potty-buddy/backend/internal/logging"
	"github.com/ayush/potty-buddy/backend/internal/models"
)

// Window is how far back Summarize looks.
const Window = 14 * 24 * time.Hour

const invalidTypeMsg = `Invalid event type. Must be "dirty_pants" or "potty"`

// EventStore defines the interface for event persistence.
type EventStore interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	InsertEvent(ctx context.Context, userID int64, eventType models.EventType, at time.Time) (*models.Event, error)
	ListEventsSince(ctx context.Context, userID int64, since time.Time) ([]models.Event, error)
}

type Service struct {
	store  EventStore
	loc    *time.Location
	logger logging.Logger
	now    func() time.Time
}

// NewService builds the service. loc decides which calendar day an event
// falls on; nil means UTC.
func NewService(store EventStore, loc *time.Location, logger logging.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, loc: loc, logger: logger, now: time.Now}
}

// Append records an event for userID at the current time.
func (s *Service) Append(ctx context.Context, userID int64, eventType models.EventType) (*models.Event, error) {
	if !eventType.Valid() {
		return nil, apperr.Validation(invalidTypeMsg)
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	ev, err := s.store.InsertEvent(ctx, userID, eventType, s.now().UTC())
	if errors.Is(err, apperr.ErrNotFound) {
		// deleted between the check and the insert
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "event logged", "user_id", userID, "event_type", eventType.String(), "event_id", ev.ID)
	return ev, nil
}

// Summarize rolls up the user's events from the last Window.
func (s *Service) Summarize(ctx context.Context, userID int64) (*models.Summary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	since := s.now().Add(-Window)
	evs, err := s.store.ListEventsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return Rollup(evs, s.loc), nil
}

func (s *Service) requireUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperr.NotFound("User not found")
	}
	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("User not found")
	}
	return nil
}
