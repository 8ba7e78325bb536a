package tourapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/go-resty/resty/v2"
)

var ErrUnauthorized = errors.New("tour api rejected the access token")

// APIError is a non-2xx reply in the standard response envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("tour api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tour api: %s: %s", e.Code, e.Message)
}

// Unwrap maps well-known statuses back onto domain errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusServiceUnavailable:
		return tour.ErrOptimizerUnavailable
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *errorDetail    `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Client is a typed client for the tour REST API. Mutations are never
// retried: an up/down step sent twice moves the stop twice.
type Client struct {
	httpClient *resty.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Client{httpClient: client}
}

func (c *Client) ListAppointments(ctx context.Context, weekday tour.Weekday, calendarWeek int) ([]tour.AppointmentResponse, error) {
	var out []tour.AppointmentResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/appointments/weekday/"+string(weekday), map[string]string{
		"calendar_week": strconv.Itoa(calendarWeek),
	}, nil, &out)
	return out, err
}

// ListRoutes returns the routes of a weekday, optionally narrowed to one
// employee or area.
func (c *Client) ListRoutes(ctx context.Context, filter tour.RouteFilter) ([]tour.Route, error) {
	var out tour.ListRoutesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/routes", routeQuery(filter.Weekday, filter.CalendarWeek, filter.EmployeeID, filter.Area), nil, &out); err != nil {
		return nil, err
	}

	routes := make([]tour.Route, 0, len(out.Routes))
	for _, r := range out.Routes {
		routes = append(routes, r.ToRoute())
	}
	return routes, nil
}

// UpdateRouteOrder sends one reorder. Requests with both or neither of
// direction and index are rejected before anything is sent.
func (c *Client) UpdateRouteOrder(ctx context.Context, routeID int64, req tour.UpdateRouteOrderRequest) (tour.Route, error) {
	if err := req.Target().Validate(); err != nil {
		return tour.Route{}, err
	}
	if (req.Direction != nil) == (req.Index != nil) {
		return tour.Route{}, tour.ErrInvalidReorderTarget
	}

	var out tour.UpdateRouteOrderResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/routes/"+strconv.FormatInt(routeID, 10), nil, req, &out); err != nil {
		return tour.Route{}, err
	}
	return out.Route.ToRoute(), nil
}

func (c *Client) OptimizeRoutes(ctx context.Context, req tour.OptimizeRoutesRequest) (tour.OptimizeRoutesResponse, error) {
	var out tour.OptimizeRoutesResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/routes/optimize", nil, req, &out)
	return out, err
}

// Stops returns the resolved stops of one actor and weekday.
func (c *Client) Stops(ctx context.Context, query tour.StopsQuery) (tour.ResolutionResponse, error) {
	var out tour.ResolutionResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/stops", routeQuery(query.Weekday, query.CalendarWeek, query.EmployeeID, query.Area), nil, &out)
	return out, err
}

func (c *Client) WeekendAreas(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/v1/weekend-areas", nil, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, out interface{}) error {
	var result envelope
	var failure envelope

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&failure)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("tour api %s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
		if failure.Error != nil {
			apiErr.Code = failure.Error.Code
			apiErr.Message = failure.Error.Message
			apiErr.Details = failure.Error.Details
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("tour api %s %s: decode response: %w", method, path, err)
	}
	return nil
}

func routeQuery(weekday string, calendarWeek int, employeeID *int64, area *string) map[string]string {
	q := map[string]string{"weekday": weekday}
	if calendarWeek > 0 {
		q["calendar_week"] = strconv.Itoa(calendarWeek)
	}
	if employeeID != nil {
		q["employee_id"] = strconv.FormatInt(*employeeID, 10)
	}
	if area != nil {
		q["area"] = *area
	}
	return q
}
