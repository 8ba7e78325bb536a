package tour

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/optimizer"
	"github.com/careroute/tour-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	EventRouteUpdated    = "route.updated"
	EventRoutesOptimized = "routes.optimized"
)

// Transactor runs fn in a transaction carried by the context it receives.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RouteOptimizer interface {
	Optimize(ctx context.Context, req optimizer.Request) (optimizer.Response, error)
}

type EventPublisher interface {
	PublishToMany(topics []string, event sse.Event)
}

type TourServiceImpl struct {
	tx Transactor
	tour.AppointmentRepository
	tour.RouteRepository
	tour.PatientRepository
	tour.EmployeeRepository
	routeOptimizer RouteOptimizer
	events         EventPublisher
	weekendAreas   []string
}

func NewTourService(
	tx Transactor,
	appointmentRepository tour.AppointmentRepository,
	routeRepository tour.RouteRepository,
	patientRepository tour.PatientRepository,
	employeeRepository tour.EmployeeRepository,
	routeOptimizer RouteOptimizer,
	events EventPublisher,
	weekendAreas []string,
) tour.TourService {
	return &TourServiceImpl{
		tx:                    tx,
		AppointmentRepository: appointmentRepository,
		RouteRepository:       routeRepository,
		PatientRepository:     patientRepository,
		EmployeeRepository:    employeeRepository,
		routeOptimizer:        routeOptimizer,
		events:                events,
		weekendAreas:          append([]string(nil), weekendAreas...),
	}
}

// ListAppointments implements tour.TourService.
func (s *TourServiceImpl) ListAppointments(ctx context.Context, weekday tour.Weekday, calendarWeek int) ([]tour.AppointmentResponse, error) {
	if !weekday.IsValid() {
		return nil, tour.ErrInvalidWeekday
	}

	appointments, err := s.AppointmentRepository.ListByWeekday(ctx, weekday, calendarWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	responses := make([]tour.AppointmentResponse, 0, len(appointments))
	for _, a := range appointments {
		responses = append(responses, tour.NewAppointmentResponse(a))
	}
	return responses, nil
}

// ListRoutes implements tour.TourService.
func (s *TourServiceImpl) ListRoutes(ctx context.Context, filter tour.RouteFilter) (tour.ListRoutesResponse, error) {
	if err := filter.Validate(); err != nil {
		return tour.ListRoutesResponse{}, err
	}

	routes, err := s.RouteRepository.List(ctx, filter)
	if err != nil {
		return tour.ListRoutesResponse{}, fmt.Errorf("failed to list routes: %w", err)
	}

	return tour.ListRoutesResponse{Routes: newRouteResponses(routes)}, nil
}

// UpdateRouteOrder implements tour.TourService. The route row stays locked
// while the new order is computed, so concurrent moves on one route apply one
// after the other and the last one wins.
func (s *TourServiceImpl) UpdateRouteOrder(ctx context.Context, routeID int64, req tour.UpdateRouteOrderRequest) (tour.UpdateRouteOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return tour.UpdateRouteOrderResponse{}, err
	}

	var updated tour.Route
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		route, err := s.RouteRepository.GetByIDForUpdate(txCtx, routeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return tour.ErrRouteNotFound
			}
			return fmt.Errorf("failed to get route: %w", err)
		}

		order, err := Reorder(route.RouteOrder, req.AppointmentID, req.Target())
		if err != nil {
			return err
		}

		updated, err = s.RouteRepository.UpdateOrder(txCtx, route.ID, order)
		if err != nil {
			return fmt.Errorf("failed to update route order: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to reorder route", "route_id", routeID, "appointment_id", req.AppointmentID, "error", err)
		return tour.UpdateRouteOrderResponse{}, err
	}

	resp := tour.NewRouteResponse(updated)
	s.publish([]string{ownerKey(updated)}, EventRouteUpdated, resp)

	return tour.UpdateRouteOrderResponse{Route: resp}, nil
}

// OptimizeRoutes implements tour.TourService.
func (s *TourServiceImpl) OptimizeRoutes(ctx context.Context, req tour.OptimizeRoutesRequest) (tour.OptimizeRoutesResponse, error) {
	if err := req.Validate(); err != nil {
		return tour.OptimizeRoutesResponse{}, err
	}
	actor := req.Actor()
	if actor.IsArea() && !s.isWeekendArea(actor.Area) {
		return tour.OptimizeRoutesResponse{}, tour.ErrUnknownWeekendArea
	}
	weekday := tour.Weekday(req.Weekday)

	routes, err := s.RouteRepository.List(ctx, tour.RouteFilter{
		Weekday:      req.Weekday,
		CalendarWeek: req.CalendarWeek,
		EmployeeID:   req.EmployeeID,
		Area:         req.Area,
	})
	if err != nil {
		return tour.OptimizeRoutesResponse{}, fmt.Errorf("failed to list routes: %w", err)
	}
	owned := routes[:0:0]
	for _, r := range routes {
		if actor.OwnsRoute(r) {
			owned = append(owned, r)
		}
	}
	if len(owned) == 0 {
		return tour.OptimizeRoutesResponse{}, tour.ErrNothingToOptimize
	}

	snapshot, err := s.loadSnapshot(ctx, weekday, req.CalendarWeek)
	if err != nil {
		return tour.OptimizeRoutesResponse{}, err
	}

	runID := uuid.NewString()
	result, err := s.routeOptimizer.Optimize(ctx, buildOptimizerRequest(runID, weekday, req.CalendarWeek, owned, snapshot))
	if err != nil {
		slog.Error("Route optimization failed", "run_id", runID, "actor", actor.Key(), "error", err)
		if errors.Is(err, optimizer.ErrUnavailable) {
			return tour.OptimizeRoutesResponse{}, fmt.Errorf("%w: %v", tour.ErrOptimizerUnavailable, err)
		}
		return tour.OptimizeRoutesResponse{}, fmt.Errorf("failed to optimize routes: %w", err)
	}

	byID := make(map[int64]tour.Route, len(owned))
	for _, r := range owned {
		byID[r.ID] = r
	}

	var saved []tour.Route
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		for _, res := range result.Routes {
			route, ok := byID[res.RouteID]
			if !ok {
				slog.Warn("Optimizer returned unknown route", "run_id", runID, "route_id", res.RouteID)
				continue
			}
			route.RouteOrder = mergeOptimizedOrder(route.RouteOrder, res.Order)
			route.TotalDuration = res.TotalDuration
			route.TotalDistance = res.TotalDistance
			route.Polyline = res.Polyline

			updated, err := s.RouteRepository.UpdateOptimized(txCtx, route)
			if err != nil {
				return fmt.Errorf("failed to save optimized route %d: %w", route.ID, err)
			}
			saved = append(saved, updated)
		}
		return nil
	})
	if err != nil {
		slog.Error("Failed to save optimized routes", "run_id", runID, "actor", actor.Key(), "error", err)
		return tour.OptimizeRoutesResponse{}, err
	}

	resp := tour.OptimizeRoutesResponse{
		RunID:  runID,
		Routes: newRouteResponses(saved),
	}
	s.publish([]string{actor.Key()}, EventRoutesOptimized, resp)

	return resp, nil
}

// ResolveStops implements tour.TourService.
func (s *TourServiceImpl) ResolveStops(ctx context.Context, query tour.StopsQuery) (tour.Resolution, error) {
	if err := query.Validate(); err != nil {
		return tour.Resolution{}, err
	}
	actor := query.Actor()
	if actor.IsArea() && !s.isWeekendArea(actor.Area) {
		return tour.Resolution{}, tour.ErrUnknownWeekendArea
	}
	weekday := tour.Weekday(query.Weekday)

	snapshot, err := s.loadSnapshot(ctx, weekday, query.CalendarWeek)
	if err != nil {
		return tour.Resolution{}, err
	}
	routes, err := s.RouteRepository.List(ctx, tour.RouteFilter{
		Weekday:      query.Weekday,
		CalendarWeek: query.CalendarWeek,
	})
	if err != nil {
		return tour.Resolution{}, fmt.Errorf("failed to list routes: %w", err)
	}
	snapshot.Routes = routes

	return ResolveStops(actor, weekday, snapshot), nil
}

// WeekendAreas implements tour.TourService.
func (s *TourServiceImpl) WeekendAreas() []string {
	return append([]string(nil), s.weekendAreas...)
}

// loadSnapshot fetches the appointments of the day with their patients and
// all employees. Routes are left to the caller.
func (s *TourServiceImpl) loadSnapshot(ctx context.Context, weekday tour.Weekday, calendarWeek int) (tour.Snapshot, error) {
	appointments, err := s.AppointmentRepository.ListByWeekday(ctx, weekday, calendarWeek)
	if err != nil {
		return tour.Snapshot{}, fmt.Errorf("failed to list appointments: %w", err)
	}

	seen := make(map[int64]bool, len(appointments))
	patientIDs := make([]int64, 0, len(appointments))
	for _, a := range appointments {
		if !seen[a.PatientID] {
			seen[a.PatientID] = true
			patientIDs = append(patientIDs, a.PatientID)
		}
	}

	var patients []tour.Patient
	if len(patientIDs) > 0 {
		patients, err = s.PatientRepository.ListByIDs(ctx, patientIDs)
		if err != nil {
			return tour.Snapshot{}, fmt.Errorf("failed to list patients: %w", err)
		}
	}

	employees, err := s.EmployeeRepository.ListAll(ctx)
	if err != nil {
		return tour.Snapshot{}, fmt.Errorf("failed to list employees: %w", err)
	}

	return tour.Snapshot{
		Appointments: appointments,
		Patients:     patients,
		Employees:    employees,
	}, nil
}

func (s *TourServiceImpl) isWeekendArea(area string) bool {
	if len(s.weekendAreas) == 0 {
		return true
	}
	for _, a := range s.weekendAreas {
		if a == area {
			return true
		}
	}
	return false
}

func (s *TourServiceImpl) publish(topics []string, name string, data interface{}) {
	if s.events == nil {
		return
	}
	s.events.PublishToMany(topics, sse.Event{Name: name, Data: data})
}

// buildOptimizerRequest lists the home visits of every route in route order.
// Stale entries are left out.
func buildOptimizerRequest(runID string, weekday tour.Weekday, calendarWeek int, routes []tour.Route, snapshot tour.Snapshot) optimizer.Request {
	appointments := make(map[int64]tour.Appointment, len(snapshot.Appointments))
	for _, a := range snapshot.Appointments {
		appointments[a.ID] = a
	}
	patients := make(map[int64]tour.Patient, len(snapshot.Patients))
	for _, p := range snapshot.Patients {
		patients[p.ID] = p
	}

	req := optimizer.Request{
		RunID:        runID,
		Weekday:      string(weekday),
		CalendarWeek: calendarWeek,
		Routes:       make([]optimizer.RouteRequest, 0, len(routes)),
	}
	for _, r := range routes {
		rr := optimizer.RouteRequest{
			RouteID:    r.ID,
			EmployeeID: r.EmployeeID,
			Area:       r.Area,
			Stops:      []optimizer.Stop{},
		}
		for _, id := range r.RouteOrder {
			a, ok := appointments[id]
			if !ok || !a.VisitType.IsRouteable() {
				continue
			}
			p, ok := patients[a.PatientID]
			if !ok {
				continue
			}
			rr.Stops = append(rr.Stops, optimizer.Stop{
				AppointmentID: a.ID,
				PatientID:     p.ID,
				Address:       p.Address(),
				Latitude:      p.Latitude,
				Longitude:     p.Longitude,
				Duration:      a.Duration,
				Time:          a.Time,
			})
		}
		req.Routes = append(req.Routes, rr)
	}
	return req
}

// mergeOptimizedOrder keeps the optimizer's order for ids the route already
// holds and appends the ones it left out, so no id is dropped or invented.
func mergeOptimizedOrder(current, optimized []int64) []int64 {
	member := make(map[int64]bool, len(current))
	for _, id := range current {
		member[id] = true
	}

	merged := make([]int64, 0, len(current))
	placed := make(map[int64]bool, len(current))
	for _, id := range optimized {
		if member[id] && !placed[id] {
			placed[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range current {
		if !placed[id] {
			placed[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

func ownerKey(r tour.Route) string {
	switch {
	case r.EmployeeID != nil:
		return tour.EmployeeActor(*r.EmployeeID).Key()
	case r.Area != nil:
		return tour.AreaActor(*r.Area).Key()
	}
	return ""
}

func newRouteResponses(routes []tour.Route) []tour.RouteResponse {
	responses := make([]tour.RouteResponse, 0, len(routes))
	for _, r := range routes {
		responses = append(responses, tour.NewRouteResponse(r))
	}
	return responses
}
