package http

import (
	"encoding/json"
	"net/http"

	"github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SessionHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	SelectActor(w http.ResponseWriter, r *http.Request)
	SelectWeekday(w http.ResponseWriter, r *http.Request)

	// Completions
	SetCompleted(w http.ResponseWriter, r *http.Request)
	ToggleCompleted(w http.ResponseWriter, r *http.Request)
	ClearCompletions(w http.ResponseWriter, r *http.Request)
}

type sessionHandlerImpl struct {
	sessionService session.SessionService
}

func NewSessionHandler(sessionService session.SessionService) SessionHandler {
	return &sessionHandlerImpl{
		sessionService: sessionService,
	}
}

// Get implements SessionHandler.
func (h *sessionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessionService.Get(r.Context(), getUserIDFromContext(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, state)
}

// SelectActor implements SessionHandler.
func (h *sessionHandlerImpl) SelectActor(w http.ResponseWriter, r *http.Request) {
	var req session.SelectActorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	state, err := h.sessionService.SelectActor(r.Context(), getUserIDFromContext(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, state)
}

// SelectWeekday implements SessionHandler.
func (h *sessionHandlerImpl) SelectWeekday(w http.ResponseWriter, r *http.Request) {
	var req session.SelectWeekdayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	state, err := h.sessionService.SelectWeekday(r.Context(), getUserIDFromContext(r), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, state)
}

// SetCompleted implements SessionHandler.
func (h *sessionHandlerImpl) SetCompleted(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := parsePathID(chi.URLParam(r, "appointmentID"), "appointment_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req session.SetCompletedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	state, err := h.sessionService.SetCompleted(r.Context(), getUserIDFromContext(r), appointmentID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, state)
}

// ToggleCompleted implements SessionHandler.
func (h *sessionHandlerImpl) ToggleCompleted(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := parsePathID(chi.URLParam(r, "appointmentID"), "appointment_id")
	if err != nil {
		response.HandleError(w, err)
		return
	}

	state, err := h.sessionService.Toggle(r.Context(), getUserIDFromContext(r), appointmentID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, state)
}

// ClearCompletions implements SessionHandler.
func (h *sessionHandlerImpl) ClearCompletions(w http.ResponseWriter, r *http.Request) {
	scope, err := session.ParseClearScope(r.URL.Query().Get("scope"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	state, err := h.sessionService.ClearCompletions(r.Context(), getUserIDFromContext(r), scope)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Completions cleared", state)
}
