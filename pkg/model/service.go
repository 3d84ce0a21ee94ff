package model

// Auxiliary service statuses.
const (
	ServiceActive   = "active"
	ServiceInactive = "inactive"
)

// AuxiliaryService is a bookable add-on for event reservations (catering,
// sound, decoration, ...). Contention for event slots is scoped to the
// services two requests share.
type AuxiliaryService struct {
	ID          string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string  `json:"name" bson:"name" validate:"required,min=2,max=30"`
	Description string  `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=100"`
	Price       float64 `json:"price" bson:"price" validate:"gte=0"`
	Type        string  `json:"type" bson:"type" validate:"required,min=1,max=1"`
	Status      string  `json:"status" bson:"status" validate:"required,oneof=active inactive"`
}
