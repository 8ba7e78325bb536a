package tour

import (
	"strconv"
	"time"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var WeekdayValues = []string{
	string(Monday),
	string(Tuesday),
	string(Wednesday),
	string(Thursday),
	string(Friday),
	string(Saturday),
	string(Sunday),
}

// IsValid reports whether w is one of the seven known weekdays.
func (w Weekday) IsValid() bool {
	for _, v := range WeekdayValues {
		if string(w) == v {
			return true
		}
	}
	return false
}

// WeekdayOf returns the weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(WeekdayValues[(int(t.Weekday())+6)%7])
}

// IsWeekend reports whether w is covered by weekend areas instead of employees.
func (w Weekday) IsWeekend() bool {
	return w == Saturday || w == Sunday
}

type VisitType string

const (
	VisitTypeHomeVisit    VisitType = "HB" // Home visit
	VisitTypeNewAdmission VisitType = "NA" // New admission
	VisitTypePhoneContact VisitType = "TK" // Phone contact
)

var VisitTypeValues = []string{
	string(VisitTypeHomeVisit),
	string(VisitTypeNewAdmission),
	string(VisitTypePhoneContact),
}

// IsRouteable reports whether appointments of this type are visited on a route.
// Phone contacts are never part of a route order.
func (v VisitType) IsRouteable() bool {
	return v == VisitTypeHomeVisit || v == VisitTypeNewAdmission
}

type Appointment struct {
	ID               int64
	PatientID        int64
	Weekday          Weekday
	CalendarWeek     int
	VisitType        VisitType
	EmployeeID       *int64 // nil for the weekend pool
	TourEmployeeID   *int64 // set when someone else executes the visit
	OriginEmployeeID *int64 // holder before the current substitution
	Area             *string
	Time             *string // HH:MM
	Info             string
	Duration         int // minutes
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsCoveredBy reports whether employeeID executes the visit on behalf of
// somebody else.
func (a Appointment) IsCoveredBy(employeeID int64) bool {
	return equalID(a.TourEmployeeID, employeeID) && !equalID(a.EmployeeID, employeeID)
}

type Route struct {
	ID            int64
	EmployeeID    *int64 // nil for weekend routes
	Area          *string
	Weekday       Weekday
	CalendarWeek  int
	RouteOrder    []int64
	TotalDuration int // minutes
	TotalDistance float64
	Polyline      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contains reports whether appointmentID is part of the route order.
func (r Route) Contains(appointmentID int64) bool {
	for _, id := range r.RouteOrder {
		if id == appointmentID {
			return true
		}
	}
	return false
}

type Patient struct {
	ID        int64
	Name      string
	Street    string
	Zip       string
	City      string
	Phone1    *string
	Phone2    *string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address returns the single-line postal address.
func (p Patient) Address() string {
	switch {
	case p.Street == "" && p.City == "":
		return ""
	case p.Street == "":
		return joinNonEmpty(p.Zip, p.City)
	case p.City == "":
		return p.Street
	}
	return p.Street + ", " + joinNonEmpty(p.Zip, p.City)
}

type Employee struct {
	ID        int64
	FirstName string
	LastName  string
	Area      *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e Employee) FullName() string {
	return joinNonEmpty(e.FirstName, e.LastName)
}

// Actor is the perspective stops are resolved for: a single employee, or a
// weekend coverage area.
type Actor struct {
	EmployeeID int64
	Area       string
}

func EmployeeActor(id int64) Actor {
	return Actor{EmployeeID: id}
}

func AreaActor(area string) Actor {
	return Actor{Area: area}
}

func (a Actor) IsArea() bool {
	return a.Area != ""
}

func (a Actor) IsZero() bool {
	return a.EmployeeID == 0 && a.Area == ""
}

// Key returns a stable identifier, used for persistence and event channels.
func (a Actor) Key() string {
	if a.IsArea() {
		return "area:" + a.Area
	}
	return "employee:" + strconv.FormatInt(a.EmployeeID, 10)
}

// OwnsRoute reports whether r belongs to this actor.
func (a Actor) OwnsRoute(r Route) bool {
	if a.IsArea() {
		return r.EmployeeID == nil && r.Area != nil && *r.Area == a.Area
	}
	return equalID(r.EmployeeID, a.EmployeeID)
}

// Snapshot is the server-owned data stops are resolved from.
type Snapshot struct {
	Appointments []Appointment
	Patients     []Patient
	Employees    []Employee
	Routes       []Route
}

func equalID(p *int64, id int64) bool {
	return p != nil && *p == id
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
