package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type TourHandler interface {
	// Appointments
	ListAppointments(w http.ResponseWriter, r *http.Request)

	// Routes
	ListRoutes(w http.ResponseWriter, r *http.Request)
	UpdateRouteOrder(w http.ResponseWriter, r *http.Request)
	OptimizeRoutes(w http.ResponseWriter, r *http.Request)

	// Stops
	ListStops(w http.ResponseWriter, r *http.Request)
	ListWeekendAreas(w http.ResponseWriter, r *http.Request)
}

type tourHandlerImpl struct {
	tourService    tour.TourService
	sessionService session.SessionService
}

func NewTourHandler(tourService tour.TourService, sessionService session.SessionService) TourHandler {
	return &tourHandlerImpl{
		tourService:    tourService,
		sessionService: sessionService,
	}
}

// ListAppointments implements TourHandler.
func (h *tourHandlerImpl) ListAppointments(w http.ResponseWriter, r *http.Request) {
	weekday, err := tour.ParseWeekday(chi.URLParam(r, "day"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	q := newQueryParams(r)
	calendarWeek := q.Int("calendar_week")
	if err := q.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	appointments, err := h.tourService.ListAppointments(r.Context(), weekday, calendarWeek)
	if err != nil {
		slog.Error("Failed to list appointments", "weekday", weekday, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, appointments)
}

// ListRoutes implements TourHandler.
func (h *tourHandlerImpl) ListRoutes(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	filter := tour.RouteFilter{
		Weekday:      q.String("weekday"),
		CalendarWeek: q.Int("calendar_week"),
		EmployeeID:   q.OptionalID("employee_id"),
		Area:         q.OptionalString("area"),
	}
	if err := q.Err(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.tourService.ListRoutes(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateRouteOrder implements TourHandler.
func (h *tourHandlerImpl) UpdateRouteOrder(w http.ResponseWriter, r *http.Request) {
	routeID, err := parsePathID(chi.URLParam(r, "routeID"), "route_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req tour.UpdateRouteOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.tourService.UpdateRouteOrder(r.Context(), routeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// OptimizeRoutes implements TourHandler. A successful run drops the caller's
// completion marks.
func (h *tourHandlerImpl) OptimizeRoutes(w http.ResponseWriter, r *http.Request) {
	var req tour.OptimizeRoutesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.tourService.OptimizeRoutes(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	userID := getUserIDFromContext(r)
	if err := h.sessionService.NotifyOptimized(r.Context(), userID); err != nil {
		slog.Error("Failed to clear completions after optimization", "user_id", userID, "run_id", result.RunID, "error", err)
	}

	response.SuccessWithMessage(w, "Routes optimized successfully", result)
}

// ListStops implements TourHandler.
func (h *tourHandlerImpl) ListStops(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r)
	query := tour.StopsQuery{
		Weekday:      q.String("weekday"),
		CalendarWeek: q.Int("calendar_week"),
		EmployeeID:   q.OptionalID("employee_id"),
		Area:         q.OptionalString("area"),
	}
	if err := q.Err(); err != nil {
		response.HandleError(w, err)
		return
	}
	if err := query.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	resolution, err := h.tourService.ResolveStops(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	weekday := tour.Weekday(query.Weekday)
	isCompleted, err := h.sessionService.CompletedOn(r.Context(), getUserIDFromContext(r), weekday)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	resolution.MarkCompleted(isCompleted)

	response.Success(w, tour.NewResolutionResponse(query.Actor(), weekday, resolution))
}

// ListWeekendAreas implements TourHandler.
func (h *tourHandlerImpl) ListWeekendAreas(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.tourService.WeekendAreas())
}
