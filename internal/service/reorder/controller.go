package reorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	toursvc "github.com/careroute/tour-backend-go/internal/service/tour"
)

var (
	ErrDragInProgress = errors.New("a drag is already in progress")
	ErrNotDragging    = errors.New("no drag in progress")
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StateHovering
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateHovering:
		return "hovering"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// RouteClient sends reorder mutations to the server, which owns the order.
type RouteClient interface {
	UpdateRouteOrder(ctx context.Context, routeID int64, req tour.UpdateRouteOrderRequest) (tour.Route, error)
}

type drag struct {
	routeID       int64
	appointmentID int64
	sourceIndex   int
	hoverIndex    int
	lastIndex     int
}

// Controller turns drags and up/down presses into reorder commands. Hover
// positions only drive Preview; a commit uses the drag-start index and the
// final drop index.
//
// A failed mutation is logged and the route is marked stale in the cache.
// The optimistic order stays on screen until the next refresh.
type Controller struct {
	cache  *RouteCache
	client RouteClient

	dragging atomic.Bool

	mu    sync.Mutex
	state State
	drag  *drag
}

func NewController(cache *RouteCache, client RouteClient) *Controller {
	return &Controller{cache: cache, client: client}
}

// DragInProgress is read by competing gesture handlers, such as panel swipes,
// which must stay inactive while it is true.
func (c *Controller) DragInProgress() bool {
	return c.dragging.Load()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// BeginDrag starts dragging the stop of appointmentID.
func (c *Controller) BeginDrag(appointmentID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag != nil {
		return ErrDragInProgress
	}
	route, ok := c.cache.FindContaining(appointmentID)
	if !ok {
		slog.Error("Reorder target not in any visible route", "appointment_id", appointmentID)
		return tour.ErrUnknownStop
	}
	source := indexOf(route.RouteOrder, appointmentID)

	c.drag = &drag{
		routeID:       route.ID,
		appointmentID: appointmentID,
		sourceIndex:   source,
		hoverIndex:    source,
		lastIndex:     len(route.RouteOrder) - 1,
	}
	c.state = StateDragging
	c.dragging.Store(true)
	return nil
}

// Hover records the row under the pointer. It may be called any number of
// times and never touches the cache.
func (c *Controller) Hover(targetIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag == nil {
		return ErrNotDragging
	}
	targetIndex = max(0, min(targetIndex, c.drag.lastIndex))
	c.drag.hoverIndex = targetIndex
	c.state = StateHovering
	return nil
}

// Preview returns the order the route would have if the stop were dropped at
// the current hover index.
func (c *Controller) Preview() ([]int64, bool) {
	c.mu.Lock()
	d := c.drag
	var snapshot drag
	if d != nil {
		snapshot = *d
	}
	c.mu.Unlock()

	if d == nil {
		return nil, false
	}
	route, ok := c.cache.Get(snapshot.routeID)
	if !ok {
		return nil, false
	}
	order, err := toursvc.Reorder(route.RouteOrder, snapshot.appointmentID, tour.MoveTo(snapshot.hoverIndex))
	if err != nil {
		return nil, false
	}
	return order, true
}

// Cancel abandons the drag without any mutation.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drag == nil {
		return
	}
	c.drag = nil
	c.state = StateCancelled
	c.dragging.Store(false)
}

// Drop commits the drag at the last hover index. Dropping where the drag
// started cancels instead of sending a mutation.
func (c *Controller) Drop(ctx context.Context) (tour.Route, error) {
	c.mu.Lock()
	if c.drag == nil {
		c.mu.Unlock()
		return tour.Route{}, ErrNotDragging
	}
	d := *c.drag
	c.drag = nil
	c.dragging.Store(false)

	cmd := NewDragCommand(d.routeID, d.appointmentID, d.sourceIndex, d.hoverIndex)
	if cmd.IsNoop() {
		c.state = StateCancelled
		c.mu.Unlock()
		route, _ := c.cache.Get(d.routeID)
		return route, nil
	}
	c.state = StateCommitted
	c.mu.Unlock()

	return c.Apply(ctx, cmd)
}

// Move performs an up or down step, bypassing the drag states.
func (c *Controller) Move(ctx context.Context, appointmentID int64, direction tour.Direction) (tour.Route, error) {
	if err := (tour.ReorderTarget{Direction: direction}).Validate(); err != nil {
		return tour.Route{}, err
	}

	c.mu.Lock()
	if c.drag != nil {
		c.mu.Unlock()
		return tour.Route{}, ErrDragInProgress
	}
	route, ok := c.cache.FindContaining(appointmentID)
	if !ok {
		c.mu.Unlock()
		slog.Error("Reorder target not in any visible route", "appointment_id", appointmentID)
		return tour.Route{}, tour.ErrUnknownStop
	}
	c.state = StateCommitted
	c.mu.Unlock()

	cmd := NewStepCommand(route.ID, appointmentID, indexOf(route.RouteOrder, appointmentID), direction)
	return c.Apply(ctx, cmd)
}

// Apply runs cmd: the local order changes first, then the server decides.
// The server's route replaces the cached one on success.
func (c *Controller) Apply(ctx context.Context, cmd Command) (tour.Route, error) {
	route, ok := c.cache.Get(cmd.RouteID())
	if !ok {
		slog.Error("Reorder target route not cached", "route_id", cmd.RouteID(), "appointment_id", cmd.AppointmentID())
		return tour.Route{}, tour.ErrRouteNotFound
	}

	order, err := toursvc.Reorder(route.RouteOrder, cmd.AppointmentID(), cmd.Target())
	if err != nil {
		slog.Error("Reorder rejected locally", "route_id", cmd.RouteID(), "appointment_id", cmd.AppointmentID(), "error", err)
		return tour.Route{}, err
	}
	route.RouteOrder = order
	c.cache.Put(route)

	updated, err := c.client.UpdateRouteOrder(ctx, cmd.RouteID(), cmd.Request())
	if err != nil {
		slog.Error("Failed to update route order", "route_id", cmd.RouteID(), "appointment_id", cmd.AppointmentID(), "error", err)
		c.cache.Invalidate(cmd.RouteID())
		return route, err
	}

	c.cache.Put(updated)
	return updated, nil
}

func indexOf(order []int64, id int64) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}
