package completion

import (
	"sort"
	"sync"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
)

// Store tracks which stops a field worker marked as done, one set per
// weekday, plus the weekday currently being worked on. Switching the weekday
// never touches other weekdays' sets. A Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	current   tour.Weekday
	completed map[tour.Weekday]map[int64]struct{}
}

func NewStore() *Store {
	return &Store{completed: make(map[tour.Weekday]map[int64]struct{})}
}

// SetCurrentWeekday moves the cursor. Invalid weekdays clear the cursor.
func (s *Store) SetCurrentWeekday(day tour.Weekday) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !day.IsValid() {
		day = ""
	}
	s.current = day
}

// CurrentWeekday returns the cursor and whether one is set.
func (s *Store) CurrentWeekday() (tour.Weekday, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current, s.current != ""
}

// Toggle flips id on the current weekday and returns the new state. Without a
// current weekday it does nothing and returns false.
func (s *Store) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return false
	}
	done := !s.has(s.current, id)
	s.set(s.current, id, done)
	return done
}

// SetCompleted marks id on the current weekday. No-op without a current weekday.
func (s *Store) SetCompleted(id int64, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return
	}
	s.set(s.current, id, done)
}

func (s *Store) ClearCurrentWeekday() {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.completed, s.current)
}

// ClearAll empties every weekday. The cursor is kept.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed = make(map[tour.Weekday]map[int64]struct{})
}

// IsCompleted reads from the current weekday; false without one.
func (s *Store) IsCompleted(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == "" {
		return false
	}
	return s.has(s.current, id)
}

func (s *Store) IsCompletedOn(day tour.Weekday, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.has(day, id)
}

// CompletedIDs returns the ids completed on day in ascending order.
func (s *Store) CompletedIDs(day tour.Weekday) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedIDs(s.completed[day])
}

// Weekdays lists the weekdays holding at least one completed id.
func (s *Store) Weekdays() []tour.Weekday {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := make([]tour.Weekday, 0, len(s.completed))
	for _, v := range tour.WeekdayValues {
		if len(s.completed[tour.Weekday(v)]) > 0 {
			days = append(days, tour.Weekday(v))
		}
	}
	return days
}

func (s *Store) has(day tour.Weekday, id int64) bool {
	_, ok := s.completed[day][id]
	return ok
}

func (s *Store) set(day tour.Weekday, id int64, done bool) {
	if !done {
		delete(s.completed[day], id)
		if len(s.completed[day]) == 0 {
			delete(s.completed, day)
		}
		return
	}
	if s.completed[day] == nil {
		s.completed[day] = make(map[int64]struct{})
	}
	s.completed[day][id] = struct{}{}
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
