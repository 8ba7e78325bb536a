package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/handler/http/response"
	"github.com/careroute/tour-backend-go/internal/pkg/jwt"
	"github.com/careroute/tour-backend-go/internal/pkg/sse"
	"github.com/careroute/tour-backend-go/internal/pkg/validator"
)

// EventSubscriber is satisfied by *sse.Hub.
type EventSubscriber interface {
	Subscribe(topic string) (chan sse.Event, func())
}

type EventHandler interface {
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	StreamRoutes(w http.ResponseWriter, r *http.Request)
}

type eventHandlerImpl struct {
	events     EventSubscriber
	jwtService jwt.Service
	keepalive  time.Duration
}

func NewEventHandler(events EventSubscriber, jwtService jwt.Service) EventHandler {
	return &eventHandlerImpl{
		events:     events,
		jwtService: jwtService,
		keepalive:  30 * time.Second,
	}
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GetSSEToken generates a short-lived token for SSE connections
func (h *eventHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// StreamRoutes pushes route.updated and routes.optimized events. Clients
// narrow the stream to one actor with employee_id or area, and to one day
// with weekday.
func (h *eventHandlerImpl) StreamRoutes(w http.ResponseWriter, r *http.Request) {
	// SSE doesn't support custom headers
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	q := newQueryParams(r)
	employeeID := q.OptionalID("employee_id")
	area := q.OptionalString("area")
	weekdayParam := q.String("weekday")
	if err := q.Err(); err != nil {
		response.HandleError(w, err)
		return
	}
	if employeeID != nil && area != nil {
		response.HandleError(w, validator.ValidationErrors{{
			Field:   "employee_id",
			Message: "employee_id and area are mutually exclusive",
		}})
		return
	}
	var weekday tour.Weekday
	if weekdayParam != "" {
		if weekday, err = tour.ParseWeekday(weekdayParam); err != nil {
			response.HandleError(w, err)
			return
		}
	}

	topic := sse.TopicAll
	switch {
	case employeeID != nil:
		topic = tour.EmployeeActor(*employeeID).Key()
	case area != nil:
		topic = tour.AreaActor(*area).Key()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.events.Subscribe(topic)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"user_id\":%q,\"topic\":%q}\n\n", userID, topic)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if weekday != "" && eventWeekday(event.Data) != string(weekday) {
				continue
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func eventWeekday(data interface{}) string {
	switch d := data.(type) {
	case tour.RouteResponse:
		return d.Weekday
	case tour.OptimizeRoutesResponse:
		if len(d.Routes) > 0 {
			return d.Routes[0].Weekday
		}
	}
	return ""
}
