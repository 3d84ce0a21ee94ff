package service

import (
	"posada/internal/admission"
	"posada/pkg/model"
)

// roomPolicy scores and scopes room intents. Longer stays with larger
// parties win contested rooms; contention is per room over half-open date
// ranges, so a checkout day never blocks a same-day check-in.
type roomPolicy struct{}

func NewPolicy() admission.Policy[model.RoomIntent] {
	return roomPolicy{}
}

func (roomPolicy) Score(i model.RoomIntent) float64 {
	return float64(i.Nights()*100 + i.PartySize)
}

func (roomPolicy) Key(i model.RoomIntent) string {
	return i.RoomID
}

func (roomPolicy) Conflicts(a, b model.RoomIntent) bool {
	return a.OverlapsDates(b)
}
