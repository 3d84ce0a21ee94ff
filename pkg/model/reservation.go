package model

import "time"

// Reservation statuses. Durable-conflict checks treat active, pending and
// confirmed reservations as blocking.
const (
	ReservationActive    = "active"
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

const (
	GroupKindRoom  = "room"
	GroupKindEvent = "event"
)

// ReservationGroup is the parent record every accepted reservation is created
// under, regardless of resource type. Payment evidence is attached to it
// later, out of band.
type ReservationGroup struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Kind        string    `json:"kind" bson:"kind" validate:"required,oneof=room event"`
	PaymentRef  string    `json:"payment_ref,omitempty" bson:"payment_ref,omitempty"`
	OperatorRef string    `json:"operator_ref" bson:"operator_ref" validate:"required"`
	CustomerRef string    `json:"customer_ref" bson:"customer_ref" validate:"required"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type RoomReservation struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	GroupID     string     `json:"group_id" bson:"group_id" validate:"required,mongodb"`
	RoomID      string     `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	CustomerRef string     `json:"customer_ref" bson:"customer_ref" validate:"required"`
	PartySize   int        `json:"party_size" bson:"party_size" validate:"required,min=1,max=20"`
	Furnished   bool       `json:"furnished" bson:"furnished"`
	PrivateBath bool       `json:"private_bath" bson:"private_bath"`
	StartDate   time.Time  `json:"start_date" bson:"start_date" validate:"required"`
	EndDate     time.Time  `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	Status      string     `json:"status" bson:"status" validate:"required,oneof=active pending confirmed cancelled"`
	CheckIn     *time.Time `json:"check_in,omitempty" bson:"check_in,omitempty"`
	CheckOut    *time.Time `json:"check_out,omitempty" bson:"check_out,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// EventReservation books a set of auxiliary services for an hour range on a
// calendar day. Service IDs are embedded rather than joined; the set is
// small and owned by the reservation.
type EventReservation struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	GroupID     string     `json:"group_id" bson:"group_id" validate:"required,mongodb"`
	CustomerRef string     `json:"customer_ref" bson:"customer_ref" validate:"required"`
	PartySize   int        `json:"party_size" bson:"party_size" validate:"required,min=1,max=500"`
	Date        time.Time  `json:"date" bson:"date" validate:"required"`
	StartTime   time.Time  `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time  `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	ServiceIDs  []string   `json:"service_ids" bson:"service_ids" validate:"omitempty,dive,mongodb"`
	Status      string     `json:"status" bson:"status" validate:"required,oneof=active pending confirmed cancelled"`
	CheckIn     *time.Time `json:"check_in,omitempty" bson:"check_in,omitempty"`
	CheckOut    *time.Time `json:"check_out,omitempty" bson:"check_out,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}
