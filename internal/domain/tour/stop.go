package tour

// StopRole tells from whose perspective a stop is shown. The role fixes the
// meaning of Stop.Counterpart, so a stop can name either the employee covering
// it or the employee responsible for it, never both.
type StopRole string

const (
	// RoleNormal: the actor is responsible. Counterpart is the tour employee
	// currently covering the visit, if any.
	RoleNormal StopRole = "normal"
	// RoleCovering: the actor executes a visit owned by somebody else.
	// Counterpart is the responsible employee.
	RoleCovering StopRole = "covering"
	// RoleAreaPooled: the stop belongs to a weekend area pool. Counterpart is
	// the tour employee, if any.
	RoleAreaPooled StopRole = "area_pooled"
)

type EmployeeRef struct {
	EmployeeID    int64
	Name          string
	AppointmentID int64
}

type Stop struct {
	ID                        int64 // appointment id
	RouteID                   int64 // 0 when not route-ordered
	Position                  int   // 1-based index into the route order, 0 when unordered
	PatientID                 int64
	PatientName               string
	Address                   string
	Phone1                    *string
	Phone2                    *string
	VisitType                 VisitType
	Time                      *string
	Info                      string
	Duration                  int
	Role                      StopRole
	Counterpart               *EmployeeRef
	Origin                    *EmployeeRef
	ResponsibleArea           *string
	OtherResponsibleEmployees []EmployeeRef
	IsCompleted               bool
}

// IsRouteOrdered reports whether the stop can be reordered.
func (s Stop) IsRouteOrdered() bool {
	return s.Position > 0
}

// IsTourEmployeeAppointment reports whether the actor covers this stop for
// somebody else.
func (s Stop) IsTourEmployeeAppointment() bool {
	return s.Role == RoleCovering
}

// ResponsibleEmployeeName is set only on covering stops.
func (s Stop) ResponsibleEmployeeName() string {
	if s.Role != RoleCovering || s.Counterpart == nil {
		return ""
	}
	return s.Counterpart.Name
}

// TourEmployeeName is set only on stops the actor is responsible for.
func (s Stop) TourEmployeeName() string {
	if s.Role == RoleCovering || s.Counterpart == nil {
		return ""
	}
	return s.Counterpart.Name
}

func (s Stop) OriginEmployeeName() string {
	if s.Origin == nil {
		return ""
	}
	return s.Origin.Name
}

// Resolution is the resolved view of one actor and weekday.
type Resolution struct {
	RouteStops    []Stop
	CoverageStops []Stop
	PhoneStops    []Stop
}

// All returns every stop in display order: route stops, coverage stops,
// phone stops.
func (r Resolution) All() []Stop {
	all := make([]Stop, 0, len(r.RouteStops)+len(r.CoverageStops)+len(r.PhoneStops))
	all = append(all, r.RouteStops...)
	all = append(all, r.CoverageStops...)
	all = append(all, r.PhoneStops...)
	return all
}

// MarkCompleted sets IsCompleted on every stop in place.
func (r *Resolution) MarkCompleted(isCompleted func(appointmentID int64) bool) {
	for _, bucket := range [][]Stop{r.RouteStops, r.CoverageStops, r.PhoneStops} {
		for i := range bucket {
			bucket[i].IsCompleted = isCompleted(bucket[i].ID)
		}
	}
}
