package tourapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": status < 400, "data": data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   map[string]interface{}{"code": code, "message": message},
	})
}

func TestClient_ListRoutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/routes", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "monday", r.URL.Query().Get("weekday"))
		assert.Equal(t, "12", r.URL.Query().Get("calendar_week"))
		assert.Equal(t, "4", r.URL.Query().Get("employee_id"))
		assert.Empty(t, r.URL.Query().Get("area"))

		writeEnvelope(w, http.StatusOK, tour.ListRoutesResponse{Routes: []tour.RouteResponse{
			{ID: 7, Weekday: "monday", CalendarWeek: 12, RouteOrder: []int64{3, 1, 2}, UpdatedAt: "2026-03-16T08:00:00Z"},
		}})
	}))
	defer srv.Close()

	employeeID := int64(4)
	client := NewClient(srv.URL, "secret", time.Second)
	routes, err := client.ListRoutes(context.Background(), tour.RouteFilter{Weekday: "monday", CalendarWeek: 12, EmployeeID: &employeeID})

	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, int64(7), routes[0].ID)
	assert.Equal(t, tour.Monday, routes[0].Weekday)
	assert.Equal(t, []int64{3, 1, 2}, routes[0].RouteOrder)
	assert.Equal(t, 2026, routes[0].UpdatedAt.Year())
}

func TestClient_UpdateRouteOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/routes/7", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"appointment_id": float64(2), "index": float64(0)}, body)

		writeEnvelope(w, http.StatusOK, tour.UpdateRouteOrderResponse{
			Route: tour.RouteResponse{ID: 7, RouteOrder: []int64{2, 3, 1}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	route, err := client.UpdateRouteOrder(context.Background(), 7, tour.NewUpdateRouteOrderRequest(2, tour.MoveTo(0)))

	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 1}, route.RouteOrder)
}

func TestClient_UpdateRouteOrder_RejectsAmbiguousTargetLocally(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	up := "up"
	index := 1

	_, err := client.UpdateRouteOrder(context.Background(), 7, tour.UpdateRouteOrderRequest{AppointmentID: 2, Direction: &up, Index: &index})
	assert.ErrorIs(t, err, tour.ErrInvalidReorderTarget)

	_, err = client.UpdateRouteOrder(context.Background(), 7, tour.UpdateRouteOrderRequest{AppointmentID: 2})
	assert.ErrorIs(t, err, tour.ErrInvalidReorderTarget)

	left := "left"
	_, err = client.UpdateRouteOrder(context.Background(), 7, tour.UpdateRouteOrderRequest{AppointmentID: 2, Direction: &left})
	assert.ErrorIs(t, err, tour.ErrInvalidDirection)

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)
	_, err := client.UpdateRouteOrder(context.Background(), 99, tour.NewUpdateRouteOrderRequest(2, tour.MoveUp()))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "Route not found", apiErr.Message)
}

func TestClient_OptimizerUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/routes/optimize", r.URL.Path)
		writeFailure(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Route optimizer is unavailable, try again later")
	}))
	defer srv.Close()

	area := "Nord"
	client := NewClient(srv.URL, "", time.Second)
	_, err := client.OptimizeRoutes(context.Background(), tour.OptimizeRoutesRequest{Weekday: "saturday", CalendarWeek: 3, Area: &area})

	assert.ErrorIs(t, err, tour.ErrOptimizerUnavailable)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(w, http.StatusUnauthorized, "UNAUTHORIZED", "token is unauthorized")
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "expired", time.Second)
	_, err := client.WeekendAreas(context.Background())

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_Stops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stops", r.URL.Path)
		assert.Equal(t, "Nord", r.URL.Query().Get("area"))

		position := 1
		routeID := int64(7)
		writeEnvelope(w, http.StatusOK, tour.ResolutionResponse{
			Weekday:    "saturday",
			Actor:      "area:Nord",
			RouteStops: []tour.StopResponse{{ID: 10, RouteID: &routeID, Position: &position, Role: "area_pooled"}},
		})
	}))
	defer srv.Close()

	area := "Nord"
	client := NewClient(srv.URL, "", time.Second)
	res, err := client.Stops(context.Background(), tour.StopsQuery{Weekday: "saturday", CalendarWeek: 3, Area: &area})

	require.NoError(t, err)
	assert.Equal(t, "area:Nord", res.Actor)
	require.Len(t, res.RouteStops, 1)
	assert.Equal(t, 1, *res.RouteStops[0].Position)
}

func TestClient_ListAppointmentsAndWeekendAreas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/appointments/weekday/tuesday":
			assert.Equal(t, "9", r.URL.Query().Get("calendar_week"))
			writeEnvelope(w, http.StatusOK, []tour.AppointmentResponse{{ID: 1, VisitType: "HB"}, {ID: 2, VisitType: "TK"}})
		case "/api/v1/weekend-areas":
			writeEnvelope(w, http.StatusOK, []string{"Nord", "Sued"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", time.Second)

	appointments, err := client.ListAppointments(context.Background(), tour.Tuesday, 9)
	require.NoError(t, err)
	assert.Len(t, appointments, 2)

	areas, err := client.WeekendAreas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Nord", "Sued"}, areas)
}
