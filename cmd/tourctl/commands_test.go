package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	domainSession "github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/kv"
	"github.com/careroute/tour-backend-go/internal/service/session"
	toursvc "github.com/careroute/tour-backend-go/internal/service/tour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	routes    map[int64]tour.Route
	filters   []tour.RouteFilter
	updates   []tour.UpdateRouteOrderRequest
	optimized []tour.OptimizeRoutesRequest
	stops     tour.ResolutionResponse
	updateErr error
}

func (f *fakeAPI) ListRoutes(ctx context.Context, filter tour.RouteFilter) ([]tour.Route, error) {
	f.filters = append(f.filters, filter)
	var out []tour.Route
	for _, r := range f.routes {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAPI) UpdateRouteOrder(ctx context.Context, routeID int64, req tour.UpdateRouteOrderRequest) (tour.Route, error) {
	f.updates = append(f.updates, req)
	if f.updateErr != nil {
		return tour.Route{}, f.updateErr
	}
	route := f.routes[routeID]
	order, err := toursvc.Reorder(route.RouteOrder, req.AppointmentID, req.Target())
	if err != nil {
		return tour.Route{}, err
	}
	route.RouteOrder = order
	f.routes[routeID] = route
	return route, nil
}

func (f *fakeAPI) ListAppointments(ctx context.Context, weekday tour.Weekday, calendarWeek int) ([]tour.AppointmentResponse, error) {
	return []tour.AppointmentResponse{{ID: 10, PatientID: 1, Weekday: string(weekday), CalendarWeek: calendarWeek, VisitType: "HB"}}, nil
}

func (f *fakeAPI) OptimizeRoutes(ctx context.Context, req tour.OptimizeRoutesRequest) (tour.OptimizeRoutesResponse, error) {
	f.optimized = append(f.optimized, req)
	return tour.OptimizeRoutesResponse{
		RunID:  "run-7",
		Routes: []tour.RouteResponse{{ID: 1, RouteOrder: []int64{30, 20, 10}}},
	}, nil
}

func (f *fakeAPI) Stops(ctx context.Context, query tour.StopsQuery) (tour.ResolutionResponse, error) {
	return f.stops, nil
}

func (f *fakeAPI) WeekendAreas(ctx context.Context) ([]string, error) {
	return []string{"Nord"}, nil
}

func newTestApp(t *testing.T) (*app, *fakeAPI, *bytes.Buffer) {
	t.Helper()

	store, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	sess, err := session.Open(context.Background(), store, "test")
	require.NoError(t, err)

	employeeID := int64(3)
	api := &fakeAPI{routes: map[int64]tour.Route{
		1: {ID: 1, EmployeeID: &employeeID, Weekday: tour.Monday, CalendarWeek: 12, RouteOrder: []int64{10, 20, 30}},
	}}
	out := &bytes.Buffer{}
	return newApp(api, sess, 12, out), api, out
}

func selectEmployeeMonday(t *testing.T, a *app) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.run(ctx, "actor", []string{"employee", "3"}))
	require.NoError(t, a.run(ctx, "weekday", []string{"Monday"}))
}

func TestApp_RequiresSelection(t *testing.T) {
	a, api, _ := newTestApp(t)
	ctx := context.Background()

	assert.ErrorIs(t, a.run(ctx, "routes", nil), domainSession.ErrNoWeekdaySelected)
	require.NoError(t, a.run(ctx, "weekday", []string{"monday"}))
	assert.ErrorIs(t, a.run(ctx, "stops", nil), domainSession.ErrNoActorSelected)
	assert.Empty(t, api.filters)
}

func TestApp_UsageErrors(t *testing.T) {
	a, _, _ := newTestApp(t)
	ctx := context.Background()

	assert.ErrorIs(t, a.run(ctx, "fly", nil), errUsage)
	assert.ErrorIs(t, a.run(ctx, "actor", []string{"robot", "1"}), errUsage)
	assert.ErrorIs(t, a.run(ctx, "toggle", []string{"-4"}), errUsage)
	assert.ErrorIs(t, a.run(ctx, "drag", []string{"10"}), errUsage)
	assert.ErrorIs(t, a.run(ctx, "weekday", []string{"someday"}), tour.ErrInvalidWeekday)
}

func TestApp_RoutesUseSelection(t *testing.T) {
	a, api, out := newTestApp(t)
	selectEmployeeMonday(t, a)

	require.NoError(t, a.run(context.Background(), "routes", nil))

	require.Len(t, api.filters, 1)
	assert.Equal(t, "monday", api.filters[0].Weekday)
	assert.Equal(t, 12, api.filters[0].CalendarWeek)
	require.NotNil(t, api.filters[0].EmployeeID)
	assert.Equal(t, int64(3), *api.filters[0].EmployeeID)
	assert.Contains(t, out.String(), "10 20 30")
}

func TestApp_StopsShowLocalCompletion(t *testing.T) {
	a, api, out := newTestApp(t)
	selectEmployeeMonday(t, a)
	pos := 1
	api.stops = tour.ResolutionResponse{
		RouteStops: []tour.StopResponse{{ID: 10, Position: &pos, PatientName: "Ada", Role: "normal"}},
		PhoneStops: []tour.StopResponse{{ID: 40, PatientName: "Bea", Role: "normal", IsCompleted: true}},
	}
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "toggle", []string{"10"}))
	out.Reset()
	require.NoError(t, a.run(ctx, "stops", nil))

	lines := out.String()
	assert.Contains(t, lines, "[x]  1")
	assert.Contains(t, lines, "[ ]  phone")
}

func TestApp_MoveAndDrag(t *testing.T) {
	a, api, out := newTestApp(t)
	selectEmployeeMonday(t, a)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "move", []string{"30", "UP"}))
	assert.Contains(t, out.String(), "route 1: 10 30 20")
	require.Len(t, api.updates, 1)
	require.NotNil(t, api.updates[0].Direction)
	assert.Equal(t, "up", *api.updates[0].Direction)

	out.Reset()
	require.NoError(t, a.run(ctx, "drag", []string{"10", "1", "2"}))
	assert.Contains(t, out.String(), "hover 1: 30 10 20")
	assert.Contains(t, out.String(), "route 1: 30 20 10")
	require.Len(t, api.updates, 2)
	require.NotNil(t, api.updates[1].Index)
	assert.Equal(t, 2, *api.updates[1].Index)

	out.Reset()
	require.NoError(t, a.run(ctx, "drag", []string{"20", "0", "1"}))
	assert.Contains(t, out.String(), "nothing changed")
	assert.Len(t, api.updates, 2)
}

func TestApp_MoveFailureShowsUnconfirmedOrder(t *testing.T) {
	a, api, out := newTestApp(t)
	selectEmployeeMonday(t, a)
	api.updateErr = errors.New("connection refused")

	err := a.run(context.Background(), "move", []string{"10", "down"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "route 1 (unconfirmed): 20 10 30")
}

func TestApp_OptimizeClearsMarks(t *testing.T) {
	a, api, out := newTestApp(t)
	selectEmployeeMonday(t, a)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, "toggle", []string{"20"}))

	require.NoError(t, a.run(ctx, "optimize", nil))

	require.Len(t, api.optimized, 1)
	assert.Equal(t, "monday", api.optimized[0].Weekday)
	assert.Contains(t, out.String(), "run run-7")
	assert.Empty(t, a.session.State().Completed)
	day, ok := a.session.Weekday()
	assert.True(t, ok)
	assert.Equal(t, tour.Monday, day)
}

func TestApp_ClearScopes(t *testing.T) {
	a, _, _ := newTestApp(t)
	selectEmployeeMonday(t, a)
	ctx := context.Background()

	require.NoError(t, a.run(ctx, "toggle", []string{"10"}))
	require.NoError(t, a.run(ctx, "weekday", []string{"tuesday"}))
	require.NoError(t, a.run(ctx, "toggle", []string{"11"}))

	require.NoError(t, a.run(ctx, "clear", nil))
	assert.Equal(t, map[string][]int64{"monday": {10}}, a.session.State().Completed)

	require.NoError(t, a.run(ctx, "clear", []string{"all"}))
	assert.Empty(t, a.session.State().Completed)
	assert.ErrorIs(t, a.run(ctx, "clear", []string{"some"}), errUsage)
}

func TestApp_UnreadableProfileIsNotOverwritten(t *testing.T) {
	a, api, _ := newTestApp(t)
	selectEmployeeMonday(t, a)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, "toggle", []string{"10"}))

	readErr := errors.New("input/output error")
	a.loadErr = readErr

	for _, cmd := range [][]string{
		{"toggle", "20"},
		{"clear", "all"},
		{"weekday", "tuesday"},
		{"actor", "area", "Nord"},
		{"optimize"},
	} {
		assert.ErrorIs(t, a.run(ctx, cmd[0], cmd[1:]), readErr, cmd[0])
	}
	assert.Empty(t, api.optimized)
	assert.True(t, a.session.Completion().IsCompleted(10))

	// reading still works
	require.NoError(t, a.run(ctx, "routes", nil))
	require.NoError(t, a.run(ctx, "state", nil))
}
