package domain

import (
	"strings"
	"time"
)

// GuestLimit is the base allowance plus the guests bought with each payment.
func GuestLimit(payments []Payment, base int) int {
	limit := base
	for _, p := range payments {
		limit += p.Guests
	}
	return limit
}

// ActiveUntil counts the paid days from the first payment. It is zero when
// nothing has been paid.
func ActiveUntil(payments []Payment) time.Time {
	if len(payments) == 0 {
		return time.Time{}
	}

	start := payments[0].PaidAt
	days := 0
	for _, p := range payments {
		if p.PaidAt.Before(start) {
			start = p.PaidAt
		}
		days += p.ActiveDays
	}

	return start.AddDate(0, 0, days)
}

// CanPublish reports whether the invitation may go live at now.
func CanPublish(payments []Payment, now time.Time) bool {
	return len(payments) > 0 && now.Before(ActiveUntil(payments))
}

// VisibleTo reports whether guests of group may see the event. An empty
// allowlist opens the event to everyone.
func (e Event) VisibleTo(group string) bool {
	if strings.TrimSpace(e.OpensTo) == "" {
		return true
	}
	if group == "" {
		return false
	}

	for _, g := range strings.Split(e.OpensTo, ",") {
		if strings.EqualFold(strings.TrimSpace(g), group) {
			return true
		}
	}
	return false
}

// VisibleEvents filters events down to those open to guest. A nil guest sees
// only events open to everyone.
func VisibleEvents(events []Event, guest *Guest) []Event {
	group := ""
	if guest != nil {
		group = guest.Group
	}

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.VisibleTo(group) {
			out = append(out, e)
		}
	}
	return out
}
