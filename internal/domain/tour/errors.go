package tour

import "errors"

var (
	// Route Errors
	ErrRouteNotFound        = errors.New("route not found")
	ErrUnknownStop          = errors.New("appointment is not part of the route order")
	ErrInvalidReorderTarget = errors.New("exactly one of direction or index is required")
	ErrInvalidDirection     = errors.New("direction must be 'up' or 'down'")

	// Appointment Errors
	ErrAppointmentNotFound = errors.New("appointment not found")

	// Optimization Errors
	ErrOptimizerUnavailable = errors.New("route optimizer unavailable")
	ErrNothingToOptimize    = errors.New("no routes found for the requested scope")

	// Validation Errors
	ErrInvalidWeekday     = errors.New("invalid weekday")
	ErrInvalidActor       = errors.New("exactly one of employee_id or area is required")
	ErrUnknownWeekendArea = errors.New("unknown weekend area")
)
