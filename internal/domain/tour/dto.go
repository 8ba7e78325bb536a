package tour

import (
	"strings"
	"time"

	"github.com/careroute/tour-backend-go/internal/pkg/validator"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

var DirectionValues = []string{
	string(DirectionUp),
	string(DirectionDown),
}

// ReorderTarget is either a single step in Direction or an absolute Index.
// Exactly one of the two is set.
type ReorderTarget struct {
	Direction Direction
	Index     *int
}

func MoveUp() ReorderTarget {
	return ReorderTarget{Direction: DirectionUp}
}

func MoveDown() ReorderTarget {
	return ReorderTarget{Direction: DirectionDown}
}

func MoveTo(index int) ReorderTarget {
	return ReorderTarget{Index: &index}
}

func (t ReorderTarget) Validate() error {
	hasDirection := t.Direction != ""
	hasIndex := t.Index != nil
	if hasDirection == hasIndex {
		return ErrInvalidReorderTarget
	}
	if hasDirection && t.Direction != DirectionUp && t.Direction != DirectionDown {
		return ErrInvalidDirection
	}
	return nil
}

// ParseWeekday accepts weekday names in any case.
func ParseWeekday(s string) (Weekday, error) {
	w := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if !w.IsValid() {
		return "", ErrInvalidWeekday
	}
	return w, nil
}

// ==================== ROUTE ORDER ====================

type UpdateRouteOrderRequest struct {
	AppointmentID int64   `json:"appointment_id"`
	Direction     *string `json:"direction,omitempty"`
	Index         *int    `json:"index,omitempty"`
}

func (r *UpdateRouteOrderRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.AppointmentID <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "appointment_id",
			Message: "appointment_id is required",
		})
	}
	if (r.Direction == nil) == (r.Index == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "direction",
			Message: "exactly one of direction or index is required",
		})
	}
	if r.Direction != nil && !validator.IsInSlice(*r.Direction, DirectionValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "direction",
			Message: "direction must be one of: " + strings.Join(DirectionValues, ", "),
		})
	}
	if r.Index != nil && *r.Index < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "index",
			Message: "index must be a non-negative number",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Target converts a validated request into a reorder target.
func (r UpdateRouteOrderRequest) Target() ReorderTarget {
	if r.Direction != nil {
		return ReorderTarget{Direction: Direction(*r.Direction)}
	}
	if r.Index != nil {
		return MoveTo(*r.Index)
	}
	return ReorderTarget{}
}

// NewUpdateRouteOrderRequest builds the wire request for a target.
func NewUpdateRouteOrderRequest(appointmentID int64, target ReorderTarget) UpdateRouteOrderRequest {
	req := UpdateRouteOrderRequest{AppointmentID: appointmentID}
	if target.Direction != "" {
		d := string(target.Direction)
		req.Direction = &d
	}
	if target.Index != nil {
		i := *target.Index
		req.Index = &i
	}
	return req
}

type UpdateRouteOrderResponse struct {
	Route RouteResponse `json:"route"`
}

// ==================== ROUTE LISTING ====================

type RouteFilter struct {
	Weekday      string  `json:"weekday"`
	CalendarWeek int     `json:"calendar_week"`
	EmployeeID   *int64  `json:"employee_id,omitempty"`
	Area         *string `json:"area,omitempty"`
}

func (f *RouteFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = appendWeekdayErrors(errs, &f.Weekday)
	errs = appendCalendarWeekErrors(errs, f.CalendarWeek)
	if f.EmployeeID != nil && f.Area != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id and area are mutually exclusive",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type RouteResponse struct {
	ID            int64   `json:"id"`
	EmployeeID    *int64  `json:"employee_id"`
	Area          *string `json:"area"`
	Weekday       string  `json:"weekday"`
	CalendarWeek  int     `json:"calendar_week"`
	RouteOrder    []int64 `json:"route_order"`
	TotalDuration int     `json:"total_duration"`
	TotalDistance float64 `json:"total_distance"`
	Polyline      string  `json:"polyline"`
	UpdatedAt     string  `json:"updated_at"`
}

func NewRouteResponse(r Route) RouteResponse {
	order := r.RouteOrder
	if order == nil {
		order = []int64{}
	}
	return RouteResponse{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		Area:          r.Area,
		Weekday:       string(r.Weekday),
		CalendarWeek:  r.CalendarWeek,
		RouteOrder:    order,
		TotalDuration: r.TotalDuration,
		TotalDistance: r.TotalDistance,
		Polyline:      r.Polyline,
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
}

// ToRoute converts a wire route back into the domain shape.
func (r RouteResponse) ToRoute() Route {
	route := Route{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		Area:          r.Area,
		Weekday:       Weekday(r.Weekday),
		CalendarWeek:  r.CalendarWeek,
		RouteOrder:    append([]int64(nil), r.RouteOrder...),
		TotalDuration: r.TotalDuration,
		TotalDistance: r.TotalDistance,
		Polyline:      r.Polyline,
	}
	if t, err := time.Parse(time.RFC3339, r.UpdatedAt); err == nil {
		route.UpdatedAt = t
	}
	return route
}

// ==================== OPTIMIZATION ====================

type OptimizeRoutesRequest struct {
	Weekday      string  `json:"weekday"`
	CalendarWeek int     `json:"calendar_week"`
	EmployeeID   *int64  `json:"employee_id,omitempty"`
	Area         *string `json:"area,omitempty"`
}

func (r *OptimizeRoutesRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = appendWeekdayErrors(errs, &r.Weekday)
	errs = appendCalendarWeekErrors(errs, r.CalendarWeek)
	errs = appendActorErrors(errs, r.EmployeeID, r.Area)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r OptimizeRoutesRequest) Actor() Actor {
	return actorOf(r.EmployeeID, r.Area)
}

type OptimizeRoutesResponse struct {
	RunID  string          `json:"run_id"`
	Routes []RouteResponse `json:"routes"`
}

// ==================== APPOINTMENTS ====================

type AppointmentResponse struct {
	ID               int64   `json:"id"`
	PatientID        int64   `json:"patient_id"`
	Weekday          string  `json:"weekday"`
	CalendarWeek     int     `json:"calendar_week"`
	VisitType        string  `json:"visit_type"`
	EmployeeID       *int64  `json:"employee_id"`
	TourEmployeeID   *int64  `json:"tour_employee_id"`
	OriginEmployeeID *int64  `json:"origin_employee_id"`
	Area             *string `json:"area"`
	Time             *string `json:"time"`
	Info             string  `json:"info"`
	Duration         int     `json:"duration"`
}

func NewAppointmentResponse(a Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:               a.ID,
		PatientID:        a.PatientID,
		Weekday:          string(a.Weekday),
		CalendarWeek:     a.CalendarWeek,
		VisitType:        string(a.VisitType),
		EmployeeID:       a.EmployeeID,
		TourEmployeeID:   a.TourEmployeeID,
		OriginEmployeeID: a.OriginEmployeeID,
		Area:             a.Area,
		Time:             a.Time,
		Info:             a.Info,
		Duration:         a.Duration,
	}
}

// ==================== STOPS ====================

type StopsQuery struct {
	Weekday      string  `json:"weekday"`
	CalendarWeek int     `json:"calendar_week"`
	EmployeeID   *int64  `json:"employee_id,omitempty"`
	Area         *string `json:"area,omitempty"`
}

func (q *StopsQuery) Validate() error {
	var errs validator.ValidationErrors

	errs = appendWeekdayErrors(errs, &q.Weekday)
	errs = appendCalendarWeekErrors(errs, q.CalendarWeek)
	errs = appendActorErrors(errs, q.EmployeeID, q.Area)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (q StopsQuery) Actor() Actor {
	return actorOf(q.EmployeeID, q.Area)
}

type EmployeeRefResponse struct {
	EmployeeID    int64  `json:"employee_id"`
	Name          string `json:"name"`
	AppointmentID int64  `json:"appointment_id"`
}

type StopResponse struct {
	ID                        int64                 `json:"id"`
	RouteID                   *int64                `json:"route_id,omitempty"`
	Position                  *int                  `json:"position,omitempty"`
	PatientID                 int64                 `json:"patient_id"`
	PatientName               string                `json:"patient_name"`
	Address                   string                `json:"address"`
	Phone1                    *string               `json:"phone1,omitempty"`
	Phone2                    *string               `json:"phone2,omitempty"`
	VisitType                 string                `json:"visit_type"`
	Time                      *string               `json:"time,omitempty"`
	Info                      string                `json:"info,omitempty"`
	Duration                  int                   `json:"duration"`
	Role                      string                `json:"role"`
	IsTourEmployeeAppointment bool                  `json:"is_tour_employee_appointment"`
	ResponsibleEmployeeName   *string               `json:"responsible_employee_name,omitempty"`
	ResponsibleArea           *string               `json:"responsible_area,omitempty"`
	TourEmployeeName          *string               `json:"tour_employee_name,omitempty"`
	OriginEmployeeName        *string               `json:"origin_employee_name,omitempty"`
	OtherResponsibleEmployees []EmployeeRefResponse `json:"other_responsible_employees,omitempty"`
	IsCompleted               bool                  `json:"is_completed"`
}

func NewStopResponse(s Stop) StopResponse {
	resp := StopResponse{
		ID:                        s.ID,
		PatientID:                 s.PatientID,
		PatientName:               s.PatientName,
		Address:                   s.Address,
		Phone1:                    s.Phone1,
		Phone2:                    s.Phone2,
		VisitType:                 string(s.VisitType),
		Time:                      s.Time,
		Info:                      s.Info,
		Duration:                  s.Duration,
		Role:                      string(s.Role),
		IsTourEmployeeAppointment: s.IsTourEmployeeAppointment(),
		ResponsibleArea:           s.ResponsibleArea,
		ResponsibleEmployeeName:   nonEmpty(s.ResponsibleEmployeeName()),
		TourEmployeeName:          nonEmpty(s.TourEmployeeName()),
		OriginEmployeeName:        nonEmpty(s.OriginEmployeeName()),
		IsCompleted:               s.IsCompleted,
	}
	if s.IsRouteOrdered() {
		routeID, position := s.RouteID, s.Position
		resp.RouteID = &routeID
		resp.Position = &position
	}
	for _, other := range s.OtherResponsibleEmployees {
		resp.OtherResponsibleEmployees = append(resp.OtherResponsibleEmployees, EmployeeRefResponse(other))
	}
	return resp
}

type ResolutionResponse struct {
	Weekday       string         `json:"weekday"`
	Actor         string         `json:"actor"`
	RouteStops    []StopResponse `json:"route_stops"`
	CoverageStops []StopResponse `json:"coverage_stops"`
	PhoneStops    []StopResponse `json:"phone_stops"`
}

func NewResolutionResponse(actor Actor, weekday Weekday, r Resolution) ResolutionResponse {
	return ResolutionResponse{
		Weekday:       string(weekday),
		Actor:         actor.Key(),
		RouteStops:    newStopResponses(r.RouteStops),
		CoverageStops: newStopResponses(r.CoverageStops),
		PhoneStops:    newStopResponses(r.PhoneStops),
	}
}

func newStopResponses(stops []Stop) []StopResponse {
	out := make([]StopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, NewStopResponse(s))
	}
	return out
}

func appendWeekdayErrors(errs validator.ValidationErrors, weekday *string) validator.ValidationErrors {
	if validator.IsEmpty(*weekday) {
		return append(errs, validator.ValidationError{
			Field:   "weekday",
			Message: "weekday is required",
		})
	}
	w, err := ParseWeekday(*weekday)
	if err != nil {
		return append(errs, validator.ValidationError{
			Field:   "weekday",
			Message: "weekday must be one of: " + strings.Join(WeekdayValues, ", "),
		})
	}
	*weekday = string(w)
	return errs
}

func appendCalendarWeekErrors(errs validator.ValidationErrors, calendarWeek int) validator.ValidationErrors {
	if calendarWeek < 1 || calendarWeek > 53 {
		return append(errs, validator.ValidationError{
			Field:   "calendar_week",
			Message: "calendar_week must be between 1 and 53",
		})
	}
	return errs
}

func appendActorErrors(errs validator.ValidationErrors, employeeID *int64, area *string) validator.ValidationErrors {
	hasEmployee := employeeID != nil
	hasArea := area != nil && !validator.IsEmpty(*area)
	if hasEmployee == hasArea {
		return append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "exactly one of employee_id or area is required",
		})
	}
	if hasEmployee && *employeeID <= 0 {
		return append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a positive number",
		})
	}
	return errs
}

func actorOf(employeeID *int64, area *string) Actor {
	if area != nil && *area != "" {
		return AreaActor(*area)
	}
	if employeeID != nil {
		return EmployeeActor(*employeeID)
	}
	return Actor{}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
