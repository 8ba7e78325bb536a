package reorder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	toursvc "github.com/careroute/tour-backend-go/internal/service/tour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentRequest struct {
	routeID int64
	req     tour.UpdateRouteOrderRequest
}

// fakeServer applies requests with the same order model the API uses.
type fakeServer struct {
	mu     sync.Mutex
	routes map[int64]tour.Route
	sent   []sentRequest
	err    error
}

func newFakeServer(routes ...tour.Route) *fakeServer {
	s := &fakeServer{routes: make(map[int64]tour.Route)}
	for _, r := range routes {
		s.routes[r.ID] = r
	}
	return s
}

func (s *fakeServer) UpdateRouteOrder(ctx context.Context, routeID int64, req tour.UpdateRouteOrderRequest) (tour.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, sentRequest{routeID: routeID, req: req})
	if s.err != nil {
		return tour.Route{}, s.err
	}
	route := s.routes[routeID]
	order, err := toursvc.Reorder(route.RouteOrder, req.AppointmentID, req.Target())
	if err != nil {
		return tour.Route{}, err
	}
	route.RouteOrder = order
	route.Polyline = "server"
	s.routes[routeID] = route
	return route, nil
}

func (s *fakeServer) ListRoutes(ctx context.Context, filter tour.RouteFilter) ([]tour.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []tour.Route
	for _, r := range s.routes {
		out = append(out, r)
	}
	return out, nil
}

func newControllerFixture() (*Controller, *RouteCache, *fakeServer) {
	routes := []tour.Route{
		{ID: 1, RouteOrder: []int64{10, 20, 30, 40}},
		{ID: 2, RouteOrder: []int64{50, 60}},
	}
	cache := NewRouteCache()
	cache.Replace(routes)
	server := newFakeServer(routes...)
	return NewController(cache, server), cache, server
}

func TestController_DragHoverDrop(t *testing.T) {
	ctrl, cache, server := newControllerFixture()

	require.NoError(t, ctrl.BeginDrag(20))
	assert.True(t, ctrl.DragInProgress())
	assert.Equal(t, StateDragging, ctrl.State())

	for _, idx := range []int{2, 0, 3} {
		require.NoError(t, ctrl.Hover(idx))
	}
	assert.Equal(t, StateHovering, ctrl.State())

	preview, ok := ctrl.Preview()
	require.True(t, ok)
	assert.Equal(t, []int64{10, 30, 40, 20}, preview)
	// hover feedback never reaches the cache or the server
	cached, _ := cache.Get(1)
	assert.Equal(t, []int64{10, 20, 30, 40}, cached.RouteOrder)
	assert.Empty(t, server.sent)

	route, err := ctrl.Drop(context.Background())
	require.NoError(t, err)

	assert.False(t, ctrl.DragInProgress())
	assert.Equal(t, StateCommitted, ctrl.State())
	assert.Equal(t, []int64{10, 30, 40, 20}, route.RouteOrder)
	assert.Equal(t, "server", route.Polyline)

	require.Len(t, server.sent, 1)
	sent := server.sent[0]
	assert.Equal(t, int64(1), sent.routeID)
	assert.Equal(t, int64(20), sent.req.AppointmentID)
	require.NotNil(t, sent.req.Index)
	assert.Equal(t, 3, *sent.req.Index)
	assert.Nil(t, sent.req.Direction)

	cached, _ = cache.Get(1)
	assert.Equal(t, "server", cached.Polyline)
}

func TestController_DropAtStartCancels(t *testing.T) {
	ctrl, _, server := newControllerFixture()

	require.NoError(t, ctrl.BeginDrag(30))
	require.NoError(t, ctrl.Hover(0))
	require.NoError(t, ctrl.Hover(2))

	route, err := ctrl.Drop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, ctrl.State())
	assert.Equal(t, []int64{10, 20, 30, 40}, route.RouteOrder)
	assert.Empty(t, server.sent)
}

func TestController_Cancel(t *testing.T) {
	ctrl, cache, server := newControllerFixture()

	require.NoError(t, ctrl.BeginDrag(10))
	require.NoError(t, ctrl.Hover(3))
	ctrl.Cancel()

	assert.False(t, ctrl.DragInProgress())
	assert.Equal(t, StateCancelled, ctrl.State())
	_, ok := ctrl.Preview()
	assert.False(t, ok)
	cached, _ := cache.Get(1)
	assert.Equal(t, []int64{10, 20, 30, 40}, cached.RouteOrder)
	assert.Empty(t, server.sent)

	_, err := ctrl.Drop(context.Background())
	assert.ErrorIs(t, err, ErrNotDragging)
}

func TestController_OneDragAtATime(t *testing.T) {
	ctrl, _, _ := newControllerFixture()

	require.NoError(t, ctrl.BeginDrag(10))
	assert.ErrorIs(t, ctrl.BeginDrag(50), ErrDragInProgress)

	_, err := ctrl.Move(context.Background(), 50, tour.DirectionUp)
	assert.ErrorIs(t, err, ErrDragInProgress)
}

func TestController_UnknownStop(t *testing.T) {
	ctrl, _, server := newControllerFixture()

	assert.ErrorIs(t, ctrl.BeginDrag(999), tour.ErrUnknownStop)
	assert.False(t, ctrl.DragInProgress())
	assert.Equal(t, StateIdle, ctrl.State())

	_, err := ctrl.Move(context.Background(), 999, tour.DirectionDown)
	assert.ErrorIs(t, err, tour.ErrUnknownStop)
	assert.Empty(t, server.sent)
}

func TestController_HoverWithoutDrag(t *testing.T) {
	ctrl, _, _ := newControllerFixture()

	assert.ErrorIs(t, ctrl.Hover(1), ErrNotDragging)
}

func TestController_MoveSendsDirection(t *testing.T) {
	ctrl, cache, server := newControllerFixture()

	route, err := ctrl.Move(context.Background(), 60, tour.DirectionUp)
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, ctrl.State())
	assert.False(t, ctrl.DragInProgress())
	assert.Equal(t, []int64{60, 50}, route.RouteOrder)
	require.Len(t, server.sent, 1)
	require.NotNil(t, server.sent[0].req.Direction)
	assert.Equal(t, "up", *server.sent[0].req.Direction)
	assert.Nil(t, server.sent[0].req.Index)

	// first stop up is a no-op on both sides
	route, err = ctrl.Move(context.Background(), 60, tour.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, []int64{60, 50}, route.RouteOrder)
	cached, _ := cache.Get(2)
	assert.Equal(t, []int64{60, 50}, cached.RouteOrder)
}

func TestController_MoveRejectsBadDirection(t *testing.T) {
	ctrl, _, server := newControllerFixture()

	_, err := ctrl.Move(context.Background(), 10, tour.Direction("left"))
	assert.ErrorIs(t, err, tour.ErrInvalidDirection)
	assert.Empty(t, server.sent)
}

func TestController_ServerFailureKeepsOptimisticOrder(t *testing.T) {
	ctrl, cache, server := newControllerFixture()
	server.err = errors.New("503 service unavailable")

	route, err := ctrl.Move(context.Background(), 20, tour.DirectionDown)
	require.Error(t, err)

	assert.Equal(t, []int64{10, 30, 20, 40}, route.RouteOrder)
	cached, _ := cache.Get(1)
	assert.Equal(t, []int64{10, 30, 20, 40}, cached.RouteOrder, "no automatic rollback")
	assert.True(t, cache.IsStale(1))

	// a refresh restores the server's order
	require.NoError(t, cache.Refresh(context.Background(), server, tour.RouteFilter{}))
	cached, _ = cache.Get(1)
	assert.Equal(t, []int64{10, 20, 30, 40}, cached.RouteOrder)
	assert.False(t, cache.IsStale(1))
}

func TestController_ResultAppliedAfterContextSwitch(t *testing.T) {
	ctrl, cache, server := newControllerFixture()
	slow := &blockingClient{next: server, release: make(chan struct{}), started: make(chan struct{})}
	ctrl.client = slow

	done := make(chan tour.Route)
	go func() {
		route, err := ctrl.Move(context.Background(), 40, tour.DirectionUp)
		assert.NoError(t, err)
		done <- route
	}()

	<-slow.started
	cache.Replace([]tour.Route{{ID: 9, RouteOrder: []int64{90}}})
	close(slow.release)
	<-done

	_, ok := cache.Get(1)
	assert.True(t, ok, "late server result lands in the cache")
	assert.Len(t, cache.Routes(), 2)
}

type blockingClient struct {
	next    RouteClient
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingClient) UpdateRouteOrder(ctx context.Context, routeID int64, req tour.UpdateRouteOrderRequest) (tour.Route, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.next.UpdateRouteOrder(ctx, routeID, req)
}

func TestCommand_IsImmutableAndBuildsRequests(t *testing.T) {
	drag := NewDragCommand(1, 20, 1, 3)
	target := drag.Target()
	*target.Index = 0

	assert.Equal(t, 3, *drag.Target().Index)
	assert.False(t, drag.IsStep())
	assert.False(t, drag.IsNoop())
	assert.Equal(t, 1, drag.SourceIndex())

	step := NewStepCommand(1, 20, 1, tour.DirectionDown)
	req := step.Request()
	assert.True(t, step.IsStep())
	assert.Nil(t, req.Index)
	require.NotNil(t, req.Direction)
	assert.Equal(t, "down", *req.Direction)
	assert.NoError(t, req.Validate())

	assert.True(t, NewDragCommand(1, 20, 2, 2).IsNoop())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "hovering", StateHovering.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestController_HoverPastEndClamps(t *testing.T) {
	ctrl, _, server := newControllerFixture()

	require.NoError(t, ctrl.BeginDrag(40))
	require.NoError(t, ctrl.Hover(9))

	preview, ok := ctrl.Preview()
	require.True(t, ok)
	assert.Equal(t, []int64{10, 20, 30, 40}, preview)

	_, err := ctrl.Drop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, ctrl.State())
	assert.Empty(t, server.sent)

	require.NoError(t, ctrl.BeginDrag(10))
	require.NoError(t, ctrl.Hover(-3))
	require.NoError(t, ctrl.Hover(7))
	route, err := ctrl.Drop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 30, 40, 10}, route.RouteOrder)
	require.Len(t, server.sent, 1)
	assert.Equal(t, 3, *server.sent[0].req.Index)
}
