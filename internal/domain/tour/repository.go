package tour

import "context"

type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (Appointment, error)
	ListByWeekday(ctx context.Context, weekday Weekday, calendarWeek int) ([]Appointment, error)
}

type RouteRepository interface {
	GetByID(ctx context.Context, id int64) (Route, error)
	// GetByIDForUpdate locks the route row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (Route, error)
	List(ctx context.Context, filter RouteFilter) ([]Route, error)
	UpdateOrder(ctx context.Context, id int64, order []int64) (Route, error)
	UpdateOptimized(ctx context.Context, route Route) (Route, error)
}

type PatientRepository interface {
	ListByIDs(ctx context.Context, ids []int64) ([]Patient, error)
}

type EmployeeRepository interface {
	ListAll(ctx context.Context) ([]Employee, error)
}
