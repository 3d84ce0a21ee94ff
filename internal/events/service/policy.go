package service

import (
	"posada/internal/admission"
	"posada/pkg/model"
)

// eventPolicy scores and scopes event intents. Larger parties, longer events
// and more requested services win; contention is per calendar day, narrowed
// to requests that share at least one auxiliary service and overlap in time.
type eventPolicy struct{}

func NewPolicy() admission.Policy[model.EventIntent] {
	return eventPolicy{}
}

func (eventPolicy) Score(i model.EventIntent) float64 {
	return float64(i.PartySize)*100 + i.Hours()*50 + float64(len(i.ServiceIDs))*20
}

func (eventPolicy) Key(i model.EventIntent) string {
	return i.DateKey()
}

func (eventPolicy) Conflicts(a, b model.EventIntent) bool {
	return a.SharesService(b) && a.OverlapsHours(b)
}
