package invitation

import (
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/wedgo/internal/domain"
)

// PrepareEvents checks next against the stored events and assigns ids to new
// ones. The first event is the main event and keeps its id. Only new or
// changed events are held to the date window, so an event already in the past
// can stay as it is.
func PrepareEvents(current, next []domain.Event, now time.Time, horizonDays int) ([]domain.Event, error) {
	if len(next) == 0 {
		return nil, errors.New("at least one event is required")
	}
	if len(next) > domain.MaxEvent {
		return nil, fmt.Errorf("you can only have %d events", domain.MaxEvent)
	}
	if len(current) > 0 && next[0].ID != current[0].ID {
		return nil, errors.New("the main event cannot be removed")
	}

	byID := make(map[int]domain.Event, len(current))
	maxID := 0
	for _, e := range current {
		byID[e.ID] = e
		maxID = max(maxID, e.ID)
	}
	for _, e := range next {
		maxID = max(maxID, e.ID)
	}

	out := make([]domain.Event, len(next))
	for i, e := range next {
		if e.ID <= 0 {
			maxID++
			e.ID = maxID
		}

		if old, ok := byID[e.ID]; !ok || !sameEvent(old, e) {
			// calendar days are those of the place the event happens
			loc := e.LocalTime.Location()
			d, today := day(e.Date, loc), day(now, loc)
			if d.Before(today) {
				return nil, fmt.Errorf("%q cannot be in the past", e.EventName)
			}
			if d.After(today.AddDate(0, 0, horizonDays)) {
				return nil, fmt.Errorf("%q is more than %d days away", e.EventName, horizonDays)
			}
		}
		out[i] = e
	}

	return out, nil
}

func sameEvent(a, b domain.Event) bool {
	if !a.Date.Equal(b.Date) {
		return false
	}
	a.Date = b.Date
	return a == b
}

func day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
