package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/pkg/kv"
)

// SessionServiceImpl keeps one Session per user in a shared kv.Store.
// Requests of the same user are serialized; sessions are reloaded on every
// request so several API instances can share the store.
type SessionServiceImpl struct {
	store kv.Store

	mu    sync.Mutex
	locks map[string]*userLock
}

func NewSessionService(store kv.Store) session.SessionService {
	return &SessionServiceImpl{
		store: store,
		locks: make(map[string]*userLock),
	}
}

// Get implements session.SessionService.
func (m *SessionServiceImpl) Get(ctx context.Context, userID string) (session.StateResponse, error) {
	var state session.StateResponse
	err := m.view(ctx, userID, func(s *Session) error {
		state = s.State()
		return nil
	})
	return state, err
}

// SelectActor implements session.SessionService.
func (m *SessionServiceImpl) SelectActor(ctx context.Context, userID string, req session.SelectActorRequest) (session.StateResponse, error) {
	if err := req.Validate(); err != nil {
		return session.StateResponse{}, err
	}
	return m.mutate(ctx, userID, func(s *Session) error {
		return s.SelectActor(ctx, req.Actor())
	})
}

// SelectWeekday implements session.SessionService.
func (m *SessionServiceImpl) SelectWeekday(ctx context.Context, userID string, req session.SelectWeekdayRequest) (session.StateResponse, error) {
	if err := req.Validate(); err != nil {
		return session.StateResponse{}, err
	}
	return m.mutate(ctx, userID, func(s *Session) error {
		return s.SelectWeekday(ctx, tour.Weekday(req.Weekday))
	})
}

// SetCompleted implements session.SessionService.
func (m *SessionServiceImpl) SetCompleted(ctx context.Context, userID string, appointmentID int64, req session.SetCompletedRequest) (session.StateResponse, error) {
	return m.mutate(ctx, userID, func(s *Session) error {
		return s.SetCompleted(ctx, appointmentID, req.Completed)
	})
}

// Toggle implements session.SessionService.
func (m *SessionServiceImpl) Toggle(ctx context.Context, userID string, appointmentID int64) (session.StateResponse, error) {
	return m.mutate(ctx, userID, func(s *Session) error {
		_, err := s.Toggle(ctx, appointmentID)
		return err
	})
}

// ClearCompletions implements session.SessionService.
func (m *SessionServiceImpl) ClearCompletions(ctx context.Context, userID string, scope session.ClearScope) (session.StateResponse, error) {
	return m.mutate(ctx, userID, func(s *Session) error {
		if scope == session.ClearScopeAll {
			return s.ClearAll(ctx)
		}
		return s.ClearCurrentWeekday(ctx)
	})
}

// CompletedOn implements session.SessionService.
func (m *SessionServiceImpl) CompletedOn(ctx context.Context, userID string, weekday tour.Weekday) (func(int64) bool, error) {
	var ids []int64
	err := m.view(ctx, userID, func(s *Session) error {
		ids = s.Completion().CompletedIDs(weekday)
		return nil
	})
	if err != nil {
		return nil, err
	}

	done := make(map[int64]bool, len(ids))
	for _, id := range ids {
		done[id] = true
	}
	return func(id int64) bool { return done[id] }, nil
}

// NotifyOptimized implements session.SessionService.
func (m *SessionServiceImpl) NotifyOptimized(ctx context.Context, userID string) error {
	return m.with(ctx, userID, func(s *Session) error {
		return s.NotifyOptimized(ctx)
	})
}

func (m *SessionServiceImpl) mutate(ctx context.Context, userID string, fn func(s *Session) error) (session.StateResponse, error) {
	var state session.StateResponse
	err := m.with(ctx, userID, func(s *Session) error {
		if err := fn(s); err != nil {
			return err
		}
		state = s.State()
		return nil
	})
	return state, err
}

// with runs fn on a fully loaded session. A read failure aborts the call so
// fn never saves partial state over what is stored.
func (m *SessionServiceImpl) with(ctx context.Context, userID string, fn func(s *Session) error) error {
	unlock := m.lock(userID)
	defer unlock()

	s, err := Open(ctx, m.store, "user:"+userID)
	if err != nil {
		slog.Error("Failed to load session", "user_id", userID, "error", err)
		return err
	}
	return fn(s)
}

// view is with for read-only fn: it continues with what loaded.
func (m *SessionServiceImpl) view(ctx context.Context, userID string, fn func(s *Session) error) error {
	unlock := m.lock(userID)
	defer unlock()

	s, err := Open(ctx, m.store, "user:"+userID)
	if err != nil {
		slog.Error("Failed to load session", "user_id", userID, "error", err)
	}
	return fn(s)
}

// lock serializes calls of one user. Entries are reference counted and
// removed when the last holder leaves, so the map only holds active users.
func (m *SessionServiceImpl) lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.mu.Unlock()
	}
}

type userLock struct {
	mu   sync.Mutex
	refs int
}
