package tour

import "context"

type TourService interface {
	// Appointments
	ListAppointments(ctx context.Context, weekday Weekday, calendarWeek int) ([]AppointmentResponse, error)

	// Routes
	ListRoutes(ctx context.Context, filter RouteFilter) (ListRoutesResponse, error)
	UpdateRouteOrder(ctx context.Context, routeID int64, req UpdateRouteOrderRequest) (UpdateRouteOrderResponse, error)
	OptimizeRoutes(ctx context.Context, req OptimizeRoutesRequest) (OptimizeRoutesResponse, error)

	// Stops
	ResolveStops(ctx context.Context, query StopsQuery) (Resolution, error)
	WeekendAreas() []string
}
