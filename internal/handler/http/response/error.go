package response

import (
	"errors"
	"net/http"

	"github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Route errors
	case errors.Is(err, tour.ErrRouteNotFound):
		NotFound(w, "Route not found")
	case errors.Is(err, tour.ErrUnknownStop):
		UnprocessableEntity(w, "Appointment is not part of the route order")
	case errors.Is(err, tour.ErrInvalidReorderTarget):
		UnprocessableEntity(w, err.Error())
	case errors.Is(err, tour.ErrInvalidDirection):
		UnprocessableEntity(w, err.Error())

	// Appointment errors
	case errors.Is(err, tour.ErrAppointmentNotFound):
		NotFound(w, "Appointment not found")

	// Optimization errors
	case errors.Is(err, tour.ErrOptimizerUnavailable):
		ServiceUnavailable(w, "Route optimizer is unavailable, try again later")
	case errors.Is(err, tour.ErrNothingToOptimize):
		NotFound(w, "No routes found to optimize")

	// Selection errors
	case errors.Is(err, tour.ErrInvalidWeekday):
		BadRequest(w, "Invalid weekday", nil)
	case errors.Is(err, tour.ErrInvalidActor):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, tour.ErrUnknownWeekendArea):
		NotFound(w, "Weekend area not found")

	// Session errors
	case errors.Is(err, session.ErrNoWeekdaySelected):
		Conflict(w, "Select a weekday first")
	case errors.Is(err, session.ErrNoActorSelected):
		Conflict(w, "Select an employee or weekend area first")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
