package session

import (
	"strings"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/validator"
)

type SelectActorRequest struct {
	EmployeeID *int64  `json:"employee_id,omitempty"`
	Area       *string `json:"area,omitempty"`
}

func (r *SelectActorRequest) Validate() error {
	var errs validator.ValidationErrors

	hasEmployee := r.EmployeeID != nil
	hasArea := r.Area != nil && !validator.IsEmpty(*r.Area)
	if hasEmployee == hasArea {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "exactly one of employee_id or area is required",
		})
	}
	if hasEmployee && *r.EmployeeID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a positive number",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r SelectActorRequest) Actor() tour.Actor {
	if r.Area != nil && strings.TrimSpace(*r.Area) != "" {
		return tour.AreaActor(strings.TrimSpace(*r.Area))
	}
	if r.EmployeeID != nil {
		return tour.EmployeeActor(*r.EmployeeID)
	}
	return tour.Actor{}
}

type SelectWeekdayRequest struct {
	Weekday string `json:"weekday"`
}

func (r *SelectWeekdayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Weekday) {
		errs = append(errs, validator.ValidationError{
			Field:   "weekday",
			Message: "weekday is required",
		})
	} else if w, err := tour.ParseWeekday(r.Weekday); err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "weekday",
			Message: "weekday must be one of: " + strings.Join(tour.WeekdayValues, ", "),
		})
	} else {
		r.Weekday = string(w)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SetCompletedRequest struct {
	Completed bool `json:"completed"`
}

// ClearScope selects what DELETE /session/completions empties.
type ClearScope string

const (
	ClearScopeWeekday ClearScope = "weekday"
	ClearScopeAll     ClearScope = "all"
)

func ParseClearScope(s string) (ClearScope, error) {
	switch ClearScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClearScopeWeekday:
		return ClearScopeWeekday, nil
	case ClearScopeAll:
		return ClearScopeAll, nil
	}
	return "", validator.ValidationErrors{{
		Field:   "scope",
		Message: "scope must be one of: weekday, all",
	}}
}

type ActorResponse struct {
	Key        string  `json:"key"`
	EmployeeID *int64  `json:"employee_id,omitempty"`
	Area       *string `json:"area,omitempty"`
}

func NewActorResponse(a tour.Actor) *ActorResponse {
	if a.IsZero() {
		return nil
	}
	resp := &ActorResponse{Key: a.Key()}
	if a.IsArea() {
		area := a.Area
		resp.Area = &area
	} else {
		id := a.EmployeeID
		resp.EmployeeID = &id
	}
	return resp
}

type StateResponse struct {
	Actor     *ActorResponse     `json:"actor"`
	Weekday   *string            `json:"weekday"`
	Completed map[string][]int64 `json:"completed"`
}
