package model

import "time"

// RoomIntent is a normalized room-reservation request as handed to the
// admission controller. Immutable once submitted; operator and customer
// references pass through opaque.
type RoomIntent struct {
	// RoomID is the concrete room to book. Empty means "any room matching
	// the feature filter"; candidate resolution fills it before submission.
	RoomID      string
	Furnished   bool
	PrivateBath bool

	// StartDate and EndDate are calendar dates at midnight UTC; the range is
	// half-open: [StartDate, EndDate).
	StartDate time.Time
	EndDate   time.Time

	PartySize   int
	OperatorRef string
	CustomerRef string
}

// Nights returns the stay duration in whole days.
func (i RoomIntent) Nights() int {
	return int(i.EndDate.Sub(i.StartDate).Hours() / 24)
}

// OverlapsDates reports half-open date-range overlap with another intent.
func (i RoomIntent) OverlapsDates(other RoomIntent) bool {
	return i.StartDate.Before(other.EndDate) && i.EndDate.After(other.StartDate)
}

// EventIntent is a normalized event-reservation request. All instants are
// normalized to UTC on construction; the calendar date scopes contention and
// the shared auxiliary services narrow it.
type EventIntent struct {
	Date       time.Time
	StartTime  time.Time
	EndTime    time.Time
	PartySize  int
	ServiceIDs []string

	OperatorRef string
	CustomerRef string
}

// Hours returns the event duration in fractional hours.
func (i EventIntent) Hours() float64 {
	return i.EndTime.Sub(i.StartTime).Hours()
}

// DateKey returns the calendar-date bucket the intent contends under.
func (i EventIntent) DateKey() string {
	return i.Date.UTC().Format("2006-01-02")
}

// SharesService reports whether two intents request at least one common
// auxiliary service.
func (i EventIntent) SharesService(other EventIntent) bool {
	for _, a := range i.ServiceIDs {
		for _, b := range other.ServiceIDs {
			if a == b {
				return true
			}
		}
	}
	return false
}

// OverlapsHours reports half-open time-range overlap with another intent.
func (i EventIntent) OverlapsHours(other EventIntent) bool {
	return i.StartTime.Before(other.EndTime) && i.EndTime.After(other.StartTime)
}
