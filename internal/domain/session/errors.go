package session

import "errors"

// Session domain errors
var (
	ErrNoWeekdaySelected = errors.New("no weekday selected")
	ErrNoActorSelected   = errors.New("no employee or weekend area selected")
)
