package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

var ErrUnavailable = errors.New("optimizer unavailable")

// Stop is one home visit handed to the optimizer.
type Stop struct {
	AppointmentID int64    `json:"appointment_id"`
	PatientID     int64    `json:"patient_id"`
	Address       string   `json:"address"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	Duration      int      `json:"duration"`
	Time          *string  `json:"time,omitempty"`
}

type RouteRequest struct {
	RouteID    int64   `json:"route_id"`
	EmployeeID *int64  `json:"employee_id,omitempty"`
	Area       *string `json:"area,omitempty"`
	Stops      []Stop  `json:"stops"`
}

type Request struct {
	RunID        string         `json:"run_id"`
	Weekday      string         `json:"weekday"`
	CalendarWeek int            `json:"calendar_week"`
	Routes       []RouteRequest `json:"routes"`
}

type RouteResult struct {
	RouteID       int64   `json:"route_id"`
	Order         []int64 `json:"order"`
	TotalDuration int     `json:"total_duration"`
	TotalDistance float64 `json:"total_distance"`
	Polyline      string  `json:"polyline"`
}

type Response struct {
	RunID  string        `json:"run_id"`
	Routes []RouteResult `json:"routes"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Client talks to the external route optimizer. The optimizer is a black
// box: the returned order is taken as is.
type Client struct {
	httpClient *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	// Only retry on transport errors and 5xx
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || (r != nil && r.StatusCode() >= 500)
	})

	return &Client{httpClient: client}
}

// Optimize posts the routes of one scope and returns the optimizer's result.
func (c *Client) Optimize(ctx context.Context, req Request) (Response, error) {
	var result Response
	var failure errorBody

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&failure).
		Post("/optimize")
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.IsError() {
		msg := failure.Message
		if msg == "" {
			msg = resp.Status()
		}
		if resp.StatusCode() >= 500 {
			return Response{}, fmt.Errorf("%w: %s", ErrUnavailable, msg)
		}
		return Response{}, fmt.Errorf("optimizer rejected request (status %d): %s", resp.StatusCode(), msg)
	}

	if result.RunID == "" {
		result.RunID = req.RunID
	}

	return result, nil
}
