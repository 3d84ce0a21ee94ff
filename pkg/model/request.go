package model

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// RoomReservationRequest is the wire shape for a room reservation. Dates are
// calendar days; the stay is half-open, so end_date is the checkout day and
// never blocks another party checking in that day.
type RoomReservationRequest struct {
	RoomID      string `json:"room_id,omitempty" validate:"omitempty,mongodb"`
	Furnished   bool   `json:"furnished"`
	PrivateBath bool   `json:"private_bath"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	PartySize   int    `json:"party_size" validate:"required,min=1,max=20"`
	OperatorRef string `json:"operator_ref" validate:"required,min=1,max=64"`
	CustomerRef string `json:"customer_ref" validate:"required,min=1,max=64"`
}

// Intent normalizes the request into a submission-ready intent. Dates become
// midnight UTC instants.
func (r RoomReservationRequest) Intent() (RoomIntent, error) {
	start, err := time.ParseInLocation(dateLayout, r.StartDate, time.UTC)
	if err != nil {
		return RoomIntent{}, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := time.ParseInLocation(dateLayout, r.EndDate, time.UTC)
	if err != nil {
		return RoomIntent{}, fmt.Errorf("invalid end_date: %w", err)
	}
	if !end.After(start) {
		return RoomIntent{}, fmt.Errorf("end_date must be after start_date")
	}

	return RoomIntent{
		RoomID:      r.RoomID,
		Furnished:   r.Furnished,
		PrivateBath: r.PrivateBath,
		StartDate:   start,
		EndDate:     end,
		PartySize:   r.PartySize,
		OperatorRef: r.OperatorRef,
		CustomerRef: r.CustomerRef,
	}, nil
}

// EventReservationRequest is the wire shape for an event reservation: an
// hour range on a calendar day plus the auxiliary services it needs.
type EventReservationRequest struct {
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string   `json:"end_time" validate:"required,datetime=15:04"`
	PartySize   int      `json:"party_size" validate:"required,min=1,max=500"`
	ServiceIDs  []string `json:"service_ids" validate:"required,min=1,dive,mongodb"`
	OperatorRef string   `json:"operator_ref" validate:"required,min=1,max=64"`
	CustomerRef string   `json:"customer_ref" validate:"required,min=1,max=64"`
}

// Intent normalizes the request into a submission-ready intent. Times are
// anchored to the event date in UTC; an event does not span midnight.
func (r EventReservationRequest) Intent() (EventIntent, error) {
	date, err := time.ParseInLocation(dateLayout, r.Date, time.UTC)
	if err != nil {
		return EventIntent{}, fmt.Errorf("invalid date: %w", err)
	}
	startClock, err := time.ParseInLocation(timeLayout, r.StartTime, time.UTC)
	if err != nil {
		return EventIntent{}, fmt.Errorf("invalid start_time: %w", err)
	}
	endClock, err := time.ParseInLocation(timeLayout, r.EndTime, time.UTC)
	if err != nil {
		return EventIntent{}, fmt.Errorf("invalid end_time: %w", err)
	}

	start := date.Add(time.Duration(startClock.Hour())*time.Hour + time.Duration(startClock.Minute())*time.Minute)
	end := date.Add(time.Duration(endClock.Hour())*time.Hour + time.Duration(endClock.Minute())*time.Minute)
	if !end.After(start) {
		return EventIntent{}, fmt.Errorf("end_time must be after start_time")
	}

	ids := make([]string, 0, len(r.ServiceIDs))
	seen := make(map[string]struct{}, len(r.ServiceIDs))
	for _, id := range r.ServiceIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return EventIntent{
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		PartySize:   r.PartySize,
		ServiceIDs:  ids,
		OperatorRef: r.OperatorRef,
		CustomerRef: r.CustomerRef,
	}, nil
}

// AdmissionResult is the wire shape of an accepted reservation.
type AdmissionResult struct {
	ReservationID  string  `json:"reservation_id"`
	GroupID        string  `json:"group_id"`
	RoomID         string  `json:"room_id,omitempty"`
	Score          float64 `json:"score"`
	RejectedRivals int     `json:"rejected_rivals,omitempty"`
}
