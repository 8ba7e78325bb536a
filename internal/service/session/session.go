package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/kv"
	"github.com/careroute/tour-backend-go/internal/service/completion"
)

const (
	actorKey   = "tour.actor"
	weekdayKey = "tour.weekday"
)

type storedActor struct {
	EmployeeID int64  `json:"employee_id,omitempty"`
	Area       string `json:"area,omitempty"`
}

// Session holds the selections of one profile: acting employee or weekend
// area, weekday, and completion marks. Each lives under its own key so
// clearing one leaves the others alone. Every mutation is written through.
type Session struct {
	mu         sync.Mutex
	store      kv.Store
	profile    string
	actor      tour.Actor
	completion *completion.Store
}

// Open loads the profile's state. Missing or unreadable values start empty;
// only a failing store is reported, and even then a usable session is
// returned.
func Open(ctx context.Context, store kv.Store, profile string) (*Session, error) {
	s := &Session{store: store, profile: profile}

	var loadErr error
	actor, err := s.loadActor(ctx)
	if err != nil {
		loadErr = err
	}
	s.actor = actor

	weekday, err := s.loadWeekday(ctx)
	if err != nil && loadErr == nil {
		loadErr = err
	}

	s.completion, err = completion.Load(ctx, store, s.key(completion.StorageKey), weekday)
	if err != nil && loadErr == nil {
		loadErr = err
	}
	if weekday != "" {
		s.completion.SetCurrentWeekday(weekday)
	}

	return s, loadErr
}

func (s *Session) Actor() tour.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.actor
}

func (s *Session) Weekday() (tour.Weekday, bool) {
	return s.completion.CurrentWeekday()
}

// Completion exposes the completion marks for reading.
func (s *Session) Completion() *completion.Store {
	return s.completion
}

// SelectActor switches the acting employee or weekend area. A different actor
// clears every completion mark.
func (s *Session) SelectActor(ctx context.Context, actor tour.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor.IsZero() {
		return session.ErrNoActorSelected
	}
	changed := actor != s.actor
	s.actor = actor

	if err := s.saveJSON(ctx, actorKey, storedActor{EmployeeID: actor.EmployeeID, Area: actor.Area}); err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.completion.ClearAll()
	return s.saveCompletion(ctx)
}

// SelectWeekday moves the weekday cursor. No completion data is dropped.
func (s *Session) SelectWeekday(ctx context.Context, day tour.Weekday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !day.IsValid() {
		return tour.ErrInvalidWeekday
	}
	s.completion.SetCurrentWeekday(day)

	if err := s.saveJSON(ctx, weekdayKey, string(day)); err != nil {
		return err
	}
	return s.saveCompletion(ctx)
}

// Toggle flips the mark of id on the selected weekday and returns the new state.
func (s *Session) Toggle(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.completion.CurrentWeekday(); !ok {
		return false, session.ErrNoWeekdaySelected
	}
	done := s.completion.Toggle(id)
	return done, s.saveCompletion(ctx)
}

func (s *Session) SetCompleted(ctx context.Context, id int64, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.completion.CurrentWeekday(); !ok {
		return session.ErrNoWeekdaySelected
	}
	s.completion.SetCompleted(id, done)
	return s.saveCompletion(ctx)
}

func (s *Session) ClearCurrentWeekday(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completion.ClearCurrentWeekday()
	return s.saveCompletion(ctx)
}

func (s *Session) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completion.ClearAll()
	return s.saveCompletion(ctx)
}

// NotifyOptimized invalidates all marks: an optimization run makes earlier
// route orders meaningless.
func (s *Session) NotifyOptimized(ctx context.Context) error {
	return s.ClearAll(ctx)
}

// State returns a snapshot for display.
func (s *Session) State() session.StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := session.StateResponse{
		Actor:     session.NewActorResponse(s.actor),
		Completed: make(map[string][]int64),
	}
	if day, ok := s.completion.CurrentWeekday(); ok {
		d := string(day)
		state.Weekday = &d
	}
	for _, day := range s.completion.Weekdays() {
		state.Completed[string(day)] = s.completion.CompletedIDs(day)
	}
	return state
}

func (s *Session) loadActor(ctx context.Context) (tour.Actor, error) {
	data, err := s.store.Load(ctx, s.key(actorKey))
	if errors.Is(err, kv.ErrNotFound) {
		return tour.Actor{}, nil
	}
	if err != nil {
		return tour.Actor{}, fmt.Errorf("failed to load actor: %w", err)
	}

	var stored storedActor
	if err := json.Unmarshal(data, &stored); err != nil {
		slog.Warn("Ignoring unreadable actor selection", "profile", s.profile, "error", err)
		return tour.Actor{}, nil
	}
	switch {
	case stored.Area != "":
		return tour.AreaActor(stored.Area), nil
	case stored.EmployeeID > 0:
		return tour.EmployeeActor(stored.EmployeeID), nil
	}
	return tour.Actor{}, nil
}

func (s *Session) loadWeekday(ctx context.Context) (tour.Weekday, error) {
	data, err := s.store.Load(ctx, s.key(weekdayKey))
	if errors.Is(err, kv.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load weekday: %w", err)
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("Ignoring unreadable weekday selection", "profile", s.profile, "error", err)
		return "", nil
	}
	day, err := tour.ParseWeekday(raw)
	if err != nil {
		return "", nil
	}
	return day, nil
}

func (s *Session) saveJSON(ctx context.Context, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := s.store.Save(ctx, s.key(name), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

func (s *Session) saveCompletion(ctx context.Context) error {
	return completion.Save(ctx, s.store, s.key(completion.StorageKey), s.completion)
}

func (s *Session) key(name string) string {
	return s.profile + ":" + name
}
