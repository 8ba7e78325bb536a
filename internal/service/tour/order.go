package tour

import (
	"fmt"

	"github.com/careroute/tour-backend-go/internal/domain/tour"
)

// Reorder returns a new route order with appointmentID moved according to
// target. The input slice is never modified and the multiset of ids is
// preserved. Moving the first stop up or the last stop down is a no-op.
func Reorder(order []int64, appointmentID int64, target tour.ReorderTarget) ([]int64, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	from := indexOf(order, appointmentID)
	if from < 0 {
		return nil, fmt.Errorf("%w: appointment %d", tour.ErrUnknownStop, appointmentID)
	}

	if target.Index != nil {
		return moveTo(order, from, clamp(*target.Index, 0, len(order)-1)), nil
	}

	next := append([]int64(nil), order...)
	switch target.Direction {
	case tour.DirectionUp:
		if from > 0 {
			next[from-1], next[from] = next[from], next[from-1]
		}
	case tour.DirectionDown:
		if from < len(next)-1 {
			next[from+1], next[from] = next[from], next[from+1]
		}
	}
	return next, nil
}

// FindRouteContaining returns the first route whose order contains
// appointmentID.
func FindRouteContaining(routes []tour.Route, appointmentID int64) (tour.Route, bool) {
	for _, r := range routes {
		if r.Contains(appointmentID) {
			return r, true
		}
	}
	return tour.Route{}, false
}

func moveTo(order []int64, from, to int) []int64 {
	rest := make([]int64, 0, len(order)-1)
	rest = append(rest, order[:from]...)
	rest = append(rest, order[from+1:]...)

	next := make([]int64, 0, len(order))
	next = append(next, rest[:to]...)
	next = append(next, order[from])
	next = append(next, rest[to:]...)
	return next
}

func indexOf(order []int64, id int64) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
