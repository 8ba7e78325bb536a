package reorder

import (
	"github.com/careroute/tour-backend-go/internal/domain/tour"
)

// Command is one committed reorder. Fields are unexported so a command cannot
// change after it was built.
type Command struct {
	routeID       int64
	appointmentID int64
	sourceIndex   int
	targetIndex   int
	direction     tour.Direction
}

// NewDragCommand captures a drag from sourceIndex to the final drop index.
func NewDragCommand(routeID, appointmentID int64, sourceIndex, targetIndex int) Command {
	return Command{
		routeID:       routeID,
		appointmentID: appointmentID,
		sourceIndex:   sourceIndex,
		targetIndex:   targetIndex,
	}
}

// NewStepCommand captures a single up or down move.
func NewStepCommand(routeID, appointmentID int64, sourceIndex int, direction tour.Direction) Command {
	return Command{
		routeID:       routeID,
		appointmentID: appointmentID,
		sourceIndex:   sourceIndex,
		targetIndex:   -1,
		direction:     direction,
	}
}

func (c Command) RouteID() int64 { return c.routeID }

func (c Command) AppointmentID() int64 { return c.appointmentID }

func (c Command) SourceIndex() int { return c.sourceIndex }

// IsStep reports whether the command is an up/down move.
func (c Command) IsStep() bool {
	return c.direction != ""
}

// Target returns a fresh target on every call.
func (c Command) Target() tour.ReorderTarget {
	if c.IsStep() {
		return tour.ReorderTarget{Direction: c.direction}
	}
	return tour.MoveTo(c.targetIndex)
}

// IsNoop reports whether a drag ends where it started.
func (c Command) IsNoop() bool {
	return !c.IsStep() && c.sourceIndex == c.targetIndex
}

// Request builds the wire request: index for drags, direction for steps.
func (c Command) Request() tour.UpdateRouteOrderRequest {
	return tour.NewUpdateRouteOrderRequest(c.appointmentID, c.Target())
}
