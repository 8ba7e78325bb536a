package postgresql

import (
	"context"
	"fmt"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/database"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
)

const routeColumns = `id, employee_id, area, weekday, calendar_week, route_order,
	total_duration, total_distance, polyline, created_at, updated_at`

var routeSelect = []interface{}{
	"id", "employee_id", "area", "weekday", "calendar_week", "route_order",
	"total_duration", "total_distance", "polyline", "created_at", "updated_at",
}

type routeRepositoryImpl struct {
	db      *database.DB
	dialect goqu.DialectWrapper
}

func NewRouteRepository(db *database.DB) tour.RouteRepository {
	return &routeRepositoryImpl{db: db, dialect: goqu.Dialect("postgres")}
}

// GetByID implements tour.RouteRepository.
func (r *routeRepositoryImpl) GetByID(ctx context.Context, id int64) (tour.Route, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`

	route, err := scanRoute(q.QueryRow(ctx, query, id))
	if err != nil {
		return tour.Route{}, err
	}
	return route, nil
}

// GetByIDForUpdate implements tour.RouteRepository.
func (r *routeRepositoryImpl) GetByIDForUpdate(ctx context.Context, id int64) (tour.Route, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 FOR UPDATE`

	route, err := scanRoute(q.QueryRow(ctx, query, id))
	if err != nil {
		return tour.Route{}, err
	}
	return route, nil
}

// List implements tour.RouteRepository.
func (r *routeRepositoryImpl) List(ctx context.Context, filter tour.RouteFilter) ([]tour.Route, error) {
	q := GetQuerier(ctx, r.db)

	ds := r.dialect.From("routes").
		Select(routeSelect...).
		Where(goqu.Ex{"weekday": filter.Weekday})

	if filter.CalendarWeek > 0 {
		ds = ds.Where(goqu.Ex{"calendar_week": filter.CalendarWeek})
	}
	if filter.EmployeeID != nil {
		ds = ds.Where(goqu.Ex{"employee_id": *filter.EmployeeID})
	}
	if filter.Area != nil {
		ds = ds.Where(goqu.C("employee_id").IsNull(), goqu.Ex{"area": *filter.Area})
	}
	ds = ds.Order(goqu.I("id").Asc())

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build route list query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []tour.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return routes, nil
}

// UpdateOrder implements tour.RouteRepository.
func (r *routeRepositoryImpl) UpdateOrder(ctx context.Context, id int64, order []int64) (tour.Route, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE routes
		SET route_order = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + routeColumns

	route, err := scanRoute(q.QueryRow(ctx, query, nonNilOrder(order), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return tour.Route{}, fmt.Errorf("route with id %d not found: %w", id, err)
		}
		return tour.Route{}, fmt.Errorf("failed to update order of route %d: %w", id, err)
	}
	return route, nil
}

// UpdateOptimized implements tour.RouteRepository.
func (r *routeRepositoryImpl) UpdateOptimized(ctx context.Context, route tour.Route) (tour.Route, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE routes
		SET route_order = $1, total_duration = $2, total_distance = $3, polyline = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + routeColumns

	updated, err := scanRoute(q.QueryRow(ctx, query,
		nonNilOrder(route.RouteOrder), route.TotalDuration, route.TotalDistance, route.Polyline, route.ID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return tour.Route{}, fmt.Errorf("route with id %d not found: %w", route.ID, err)
		}
		return tour.Route{}, fmt.Errorf("failed to save optimized route %d: %w", route.ID, err)
	}
	return updated, nil
}

func scanRoute(row pgx.Row) (tour.Route, error) {
	var route tour.Route
	var weekday string
	err := row.Scan(
		&route.ID, &route.EmployeeID, &route.Area, &weekday, &route.CalendarWeek, &route.RouteOrder,
		&route.TotalDuration, &route.TotalDistance, &route.Polyline, &route.CreatedAt, &route.UpdatedAt,
	)
	if err != nil {
		return tour.Route{}, err
	}
	route.Weekday = tour.Weekday(weekday)
	return route, nil
}

// route_order is NOT NULL; an empty route stores [].
func nonNilOrder(order []int64) []int64 {
	if order == nil {
		return []int64{}
	}
	return order
}
