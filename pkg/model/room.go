package model

// Room statuses. A room flips to occupied when an admission commit succeeds.
const (
	RoomAvailable   = "available"
	RoomOccupied    = "occupied"
	RoomMaintenance = "maintenance"
)

type Room struct {
	ID          string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Number      string  `json:"number" bson:"number" validate:"required,min=1,max=10"`
	Floor       int     `json:"floor" bson:"floor"`
	Type        string  `json:"type" bson:"type" validate:"required,min=2,max=30"`
	Furnished   bool    `json:"furnished" bson:"furnished"`
	PrivateBath bool    `json:"private_bath" bson:"private_bath"`
	Status      string  `json:"status" bson:"status" validate:"required,oneof=available occupied maintenance"`
	NightlyRate float64 `json:"nightly_rate" bson:"nightly_rate" validate:"gte=0"`
}
