package tour

import (
	"sort"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
)

// ResolveStops turns the raw snapshot into the deduplicated stops of one actor
// on one weekday. Appointments pointing at a patient or responsible employee
// missing from the snapshot are left out; missing tour, origin or co-assigned
// employees only drop the corresponding annotation. The result depends on
// nothing but the arguments.
func ResolveStops(actor tour.Actor, weekday tour.Weekday, snapshot tour.Snapshot) tour.Resolution {
	ix := newSnapshotIndex(snapshot, weekday)

	routeStops := ix.routeStops(actor)
	coverageStops := ix.coverageStops(actor, routeStops)
	phoneStops := ix.phoneStops(actor)

	return tour.Resolution{
		RouteStops:    routeStops,
		CoverageStops: coverageStops,
		PhoneStops:    phoneStops,
	}
}

type snapshotIndex struct {
	weekday      tour.Weekday
	routes       []tour.Route
	appointments map[int64]tour.Appointment
	patients     map[int64]tour.Patient
	employees    map[int64]tour.Employee
	day          []tour.Appointment           // appointments on weekday, input order
	byPatient    map[int64][]tour.Appointment // day appointments per patient, input order
}

func newSnapshotIndex(s tour.Snapshot, weekday tour.Weekday) *snapshotIndex {
	ix := &snapshotIndex{
		weekday:      weekday,
		appointments: make(map[int64]tour.Appointment, len(s.Appointments)),
		patients:     make(map[int64]tour.Patient, len(s.Patients)),
		employees:    make(map[int64]tour.Employee, len(s.Employees)),
		byPatient:    make(map[int64][]tour.Appointment),
	}
	for _, a := range s.Appointments {
		if _, dup := ix.appointments[a.ID]; dup {
			continue
		}
		ix.appointments[a.ID] = a
		if a.Weekday == weekday {
			ix.day = append(ix.day, a)
			ix.byPatient[a.PatientID] = append(ix.byPatient[a.PatientID], a)
		}
	}
	for _, p := range s.Patients {
		ix.patients[p.ID] = p
	}
	for _, e := range s.Employees {
		ix.employees[e.ID] = e
	}

	ix.routes = make([]tour.Route, 0, len(s.Routes))
	for _, r := range s.Routes {
		if r.Weekday == weekday {
			ix.routes = append(ix.routes, r)
		}
	}
	sort.SliceStable(ix.routes, func(i, j int) bool {
		return ix.routes[i].ID < ix.routes[j].ID
	})
	return ix
}

// routeStops lists the route-ordered stops of the actor, followed by the
// actor's own home visits that no route orders yet.
func (ix *snapshotIndex) routeStops(actor tour.Actor) []tour.Stop {
	var stops []tour.Stop
	seenAppointment := make(map[int64]bool)
	seenPatient := make(map[int64]bool)

	for _, r := range ix.routes {
		if !actor.OwnsRoute(r) {
			continue
		}
		for i, id := range r.RouteOrder {
			a, ok := ix.appointments[id]
			if !ok || a.Weekday != ix.weekday || !a.VisitType.IsRouteable() {
				continue
			}
			if seenAppointment[id] || seenPatient[a.PatientID] {
				continue
			}
			stop, ok := ix.buildStop(a, roleOnOwnTour(actor, a))
			if !ok {
				continue
			}
			stop.RouteID = r.ID
			stop.Position = i + 1
			seenAppointment[id] = true
			seenPatient[a.PatientID] = true
			stops = append(stops, stop)
		}
	}

	for _, a := range ix.day {
		if !a.VisitType.IsRouteable() || !isResponsible(actor, a) {
			continue
		}
		if seenAppointment[a.ID] || seenPatient[a.PatientID] {
			continue
		}
		stop, ok := ix.buildStop(a, roleOnOwnTour(actor, a))
		if !ok {
			continue
		}
		seenAppointment[a.ID] = true
		seenPatient[a.PatientID] = true
		stops = append(stops, stop)
	}
	return stops
}

// coverageStops lists home visits the actor executes for somebody else that
// are not already on the actor's tour, one per patient.
func (ix *snapshotIndex) coverageStops(actor tour.Actor, routeStops []tour.Stop) []tour.Stop {
	if actor.IsArea() {
		return nil
	}

	onTour := make(map[int64]bool, len(routeStops))
	patientOnTour := make(map[int64]bool, len(routeStops))
	for _, s := range routeStops {
		onTour[s.ID] = true
		patientOnTour[s.PatientID] = true
	}

	var stops []tour.Stop
	seenPatient := make(map[int64]bool)
	for _, a := range ix.day {
		if !a.VisitType.IsRouteable() || !a.IsCoveredBy(actor.EmployeeID) {
			continue
		}
		if onTour[a.ID] || patientOnTour[a.PatientID] || seenPatient[a.PatientID] {
			continue
		}
		stop, ok := ix.buildStop(a, tour.RoleCovering)
		if !ok {
			continue
		}
		seenPatient[a.PatientID] = true
		stops = append(stops, stop)
	}
	return stops
}

// phoneStops lists phone contacts: the actor's own first, then the ones the
// actor covers, one per patient on each side. A covered contact is dropped
// when the patient already has one of the actor's own.
func (ix *snapshotIndex) phoneStops(actor tour.Actor) []tour.Stop {
	var normal, covering []tour.Stop
	normalPatient := make(map[int64]bool)
	coveringPatient := make(map[int64]bool)

	for _, a := range ix.day {
		if a.VisitType != tour.VisitTypePhoneContact || !isResponsible(actor, a) {
			continue
		}
		if normalPatient[a.PatientID] {
			continue
		}
		stop, ok := ix.buildStop(a, roleOnOwnTour(actor, a))
		if !ok {
			continue
		}
		normalPatient[a.PatientID] = true
		normal = append(normal, stop)
	}

	if !actor.IsArea() {
		for _, a := range ix.day {
			if a.VisitType != tour.VisitTypePhoneContact || !a.IsCoveredBy(actor.EmployeeID) {
				continue
			}
			if normalPatient[a.PatientID] || coveringPatient[a.PatientID] {
				continue
			}
			stop, ok := ix.buildStop(a, tour.RoleCovering)
			if !ok {
				continue
			}
			coveringPatient[a.PatientID] = true
			covering = append(covering, stop)
		}
	}

	return append(normal, covering...)
}

func (ix *snapshotIndex) buildStop(a tour.Appointment, role tour.StopRole) (tour.Stop, bool) {
	patient, ok := ix.patients[a.PatientID]
	if !ok {
		return tour.Stop{}, false
	}
	if a.EmployeeID != nil {
		if _, ok := ix.employees[*a.EmployeeID]; !ok {
			return tour.Stop{}, false
		}
	}

	stop := tour.Stop{
		ID:          a.ID,
		PatientID:   patient.ID,
		PatientName: patient.Name,
		Address:     patient.Address(),
		Phone1:      patient.Phone1,
		Phone2:      patient.Phone2,
		VisitType:   a.VisitType,
		Time:        a.Time,
		Info:        a.Info,
		Duration:    a.Duration,
		Role:        role,
	}

	multi := ix.isMultiAssigned(a.PatientID)

	switch role {
	case tour.RoleCovering:
		if a.EmployeeID != nil {
			stop.Counterpart = ix.ref(*a.EmployeeID, a.ID)
		} else {
			stop.ResponsibleArea = a.Area
		}
	default:
		if a.TourEmployeeID != nil && (!sameID(a.TourEmployeeID, a.EmployeeID) || multi) {
			stop.Counterpart = ix.ref(*a.TourEmployeeID, a.ID)
		}
	}

	if a.OriginEmployeeID != nil && !sameID(a.OriginEmployeeID, a.EmployeeID) {
		stop.Origin = ix.ref(*a.OriginEmployeeID, a.ID)
	}

	if multi {
		stop.OtherResponsibleEmployees = ix.otherResponsible(a)
	}

	return stop, true
}

// otherResponsible lists the employees of the patient's other appointments
// that day, once per employee, excluding the appointment's own employee.
func (ix *snapshotIndex) otherResponsible(a tour.Appointment) []tour.EmployeeRef {
	var refs []tour.EmployeeRef
	seen := make(map[int64]bool)
	for _, other := range ix.byPatient[a.PatientID] {
		if other.ID == a.ID || other.EmployeeID == nil {
			continue
		}
		employeeID := *other.EmployeeID
		if sameID(other.EmployeeID, a.EmployeeID) || seen[employeeID] {
			continue
		}
		ref := ix.ref(employeeID, other.ID)
		if ref == nil {
			continue
		}
		seen[employeeID] = true
		refs = append(refs, *ref)
	}
	return refs
}

func (ix *snapshotIndex) isMultiAssigned(patientID int64) bool {
	return len(ix.byPatient[patientID]) >= 2
}

func (ix *snapshotIndex) ref(employeeID, appointmentID int64) *tour.EmployeeRef {
	e, ok := ix.employees[employeeID]
	if !ok {
		return nil
	}
	return &tour.EmployeeRef{
		EmployeeID:    e.ID,
		Name:          e.FullName(),
		AppointmentID: appointmentID,
	}
}

// roleOnOwnTour picks the role of an appointment shown on the actor's tour.
func roleOnOwnTour(actor tour.Actor, a tour.Appointment) tour.StopRole {
	switch {
	case actor.IsArea():
		return tour.RoleAreaPooled
	case a.IsCoveredBy(actor.EmployeeID):
		return tour.RoleCovering
	}
	return tour.RoleNormal
}

// isResponsible reports whether the appointment belongs to the actor: its
// employee for employee actors, its area for weekend areas.
func isResponsible(actor tour.Actor, a tour.Appointment) bool {
	if actor.IsArea() {
		return a.Area != nil && *a.Area == actor.Area
	}
	return a.EmployeeID != nil && *a.EmployeeID == actor.EmployeeID
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
