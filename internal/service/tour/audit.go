package tour

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
)

// StaleEntry is a route order entry whose appointment no longer exists for
// the route's weekday and calendar week.
type StaleEntry struct {
	RouteID       int64
	AppointmentID int64
	Position      int
}

// StaleOrderAudit reports route order entries that point at missing
// appointments. Such entries are tolerated by the resolver, they only leave
// gaps in the positions, so the audit logs them and changes nothing.
type StaleOrderAudit struct {
	routes       tour.RouteRepository
	appointments tour.AppointmentRepository
	now          func() time.Time
}

func NewStaleOrderAudit(routes tour.RouteRepository, appointments tour.AppointmentRepository) *StaleOrderAudit {
	return &StaleOrderAudit{routes: routes, appointments: appointments, now: time.Now}
}

// Audit lists the stale entries of all routes of a weekday.
func (a *StaleOrderAudit) Audit(ctx context.Context, weekday tour.Weekday, calendarWeek int) ([]StaleEntry, error) {
	routes, err := a.routes.List(ctx, tour.RouteFilter{Weekday: string(weekday), CalendarWeek: calendarWeek})
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	appointments, err := a.appointments.ListByWeekday(ctx, weekday, calendarWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	known := make(map[int64]bool, len(appointments))
	for _, appt := range appointments {
		known[appt.ID] = true
	}

	var stale []StaleEntry
	for _, r := range routes {
		for i, id := range r.RouteOrder {
			if !known[id] {
				stale = append(stale, StaleEntry{RouteID: r.ID, AppointmentID: id, Position: i + 1})
			}
		}
	}
	return stale, nil
}

// Run audits today's routes. It is meant to be scheduled.
func (a *StaleOrderAudit) Run(ctx context.Context) error {
	today := a.now()
	_, week := today.ISOWeek()
	weekday := tour.WeekdayOf(today)

	stale, err := a.Audit(ctx, weekday, week)
	if err != nil {
		return err
	}
	for _, e := range stale {
		slog.Warn("Stale route order entry", "route_id", e.RouteID, "appointment_id", e.AppointmentID, "position", e.Position, "weekday", weekday, "calendar_week", week)
	}
	if len(stale) > 0 {
		slog.Info("Route order audit finished", "weekday", weekday, "calendar_week", week, "stale_entries", len(stale))
	}
	return nil
}
