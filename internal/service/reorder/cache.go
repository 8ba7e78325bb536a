package reorder

import (
	"context"
	"sort"
	"sync"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	toursvc "github.com/careroute/tour-backend-go/internal/service/tour"
)

type RouteLister interface {
	ListRoutes(ctx context.Context, filter tour.RouteFilter) ([]tour.Route, error)
}

// RouteCache holds the routes currently visible to the client. Routes whose
// server state is unknown after a failed mutation are marked stale until the
// next Refresh.
type RouteCache struct {
	mu     sync.RWMutex
	routes map[int64]tour.Route
	stale  map[int64]bool
}

func NewRouteCache() *RouteCache {
	return &RouteCache{
		routes: make(map[int64]tour.Route),
		stale:  make(map[int64]bool),
	}
}

// Replace swaps the visible set, typically after an actor or weekday switch.
func (c *RouteCache) Replace(routes []tour.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.routes = make(map[int64]tour.Route, len(routes))
	c.stale = make(map[int64]bool)
	for _, r := range routes {
		c.routes[r.ID] = cloneRoute(r)
	}
}

// Put stores r, clearing its stale mark. Results of in-flight mutations land
// here even when the visible set changed meanwhile.
func (c *RouteCache) Put(r tour.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.routes[r.ID] = cloneRoute(r)
	delete(c.stale, r.ID)
}

func (c *RouteCache) Invalidate(routeID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.routes[routeID]; ok {
		c.stale[routeID] = true
	}
}

func (c *RouteCache) IsStale(routeID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.stale[routeID]
}

func (c *RouteCache) Get(routeID int64) (tour.Route, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.routes[routeID]
	if !ok {
		return tour.Route{}, false
	}
	return cloneRoute(r), true
}

// Routes returns the cached routes ordered by id.
func (c *RouteCache) Routes() []tour.Route {
	c.mu.RLock()
	defer c.mu.RUnlock()

	routes := make([]tour.Route, 0, len(c.routes))
	for _, r := range c.routes {
		routes = append(routes, cloneRoute(r))
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes
}

// FindContaining locates the visible route whose order holds appointmentID.
func (c *RouteCache) FindContaining(appointmentID int64) (tour.Route, bool) {
	return toursvc.FindRouteContaining(c.Routes(), appointmentID)
}

// Refresh refetches the visible routes from the server.
func (c *RouteCache) Refresh(ctx context.Context, lister RouteLister, filter tour.RouteFilter) error {
	routes, err := lister.ListRoutes(ctx, filter)
	if err != nil {
		return err
	}
	c.Replace(routes)
	return nil
}

func cloneRoute(r tour.Route) tour.Route {
	r.RouteOrder = append([]int64(nil), r.RouteOrder...)
	return r
}
