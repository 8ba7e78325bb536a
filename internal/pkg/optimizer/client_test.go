package optimizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Optimize_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/optimize", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "run-1", req.RunID)
		require.Len(t, req.Routes, 1)
		assert.Len(t, req.Routes[0].Stops, 2)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Response{
			Routes: []RouteResult{{RouteID: 5, Order: []int64{2, 1}, TotalDuration: 40, TotalDistance: 12.5, Polyline: "abc"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	resp, err := client.Optimize(context.Background(), Request{
		RunID:        "run-1",
		Weekday:      "monday",
		CalendarWeek: 12,
		Routes: []RouteRequest{{
			RouteID: 5,
			Stops:   []Stop{{AppointmentID: 1}, {AppointmentID: 2}},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Routes, 1)
	assert.Equal(t, []int64{2, 1}, resp.Routes[0].Order)
	assert.Equal(t, "abc", resp.Routes[0].Polyline)
}

func TestClient_Optimize_ServerErrorIsUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message":"solver down"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Optimize(context.Background(), Request{RunID: "run-2"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "solver down")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Optimize_BadRequestIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"no stops"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Optimize(context.Background(), Request{RunID: "run-3"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "no stops")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_Optimize_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, 200*time.Millisecond)
	_, err := client.Optimize(context.Background(), Request{RunID: "run-4"})

	assert.ErrorIs(t, err, ErrUnavailable)
}
