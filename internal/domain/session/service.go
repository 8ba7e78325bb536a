package session

import (
	"context"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
)

// SessionService keeps each user's selections and completion marks.
type SessionService interface {
	Get(ctx context.Context, userID string) (StateResponse, error)

	// Selections
	SelectActor(ctx context.Context, userID string, req SelectActorRequest) (StateResponse, error)
	SelectWeekday(ctx context.Context, userID string, req SelectWeekdayRequest) (StateResponse, error)

	// Completions
	SetCompleted(ctx context.Context, userID string, appointmentID int64, req SetCompletedRequest) (StateResponse, error)
	Toggle(ctx context.Context, userID string, appointmentID int64) (StateResponse, error)
	ClearCompletions(ctx context.Context, userID string, scope ClearScope) (StateResponse, error)
	CompletedOn(ctx context.Context, userID string, weekday tour.Weekday) (func(appointmentID int64) bool, error)

	// NotifyOptimized drops every completion mark after a route optimization.
	NotifyOptimized(ctx context.Context, userID string) error
}
