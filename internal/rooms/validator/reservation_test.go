package validator

import (
	"testing"
	"time"

	"posada/pkg/logger"
	"posada/pkg/model"
)

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func validRequest() *model.RoomReservationRequest {
	return &model.RoomReservationRequest{
		Furnished:   true,
		PrivateBath: true,
		StartDate:   futureDate(3),
		EndDate:     futureDate(6),
		PartySize:   2,
		OperatorRef: "op-1",
		CustomerRef: "cust-1",
	}
}

func TestValidate(t *testing.T) {
	v := NewReservationValidator(logger.Discard())

	tests := []struct {
		name    string
		mutate  func(r *model.RoomReservationRequest)
		wantErr bool
	}{
		{"valid request", func(r *model.RoomReservationRequest) {}, false},
		{"missing start date", func(r *model.RoomReservationRequest) { r.StartDate = "" }, true},
		{"malformed date", func(r *model.RoomReservationRequest) { r.StartDate = "09/01/2026" }, true},
		{"inverted range", func(r *model.RoomReservationRequest) {
			r.StartDate = futureDate(6)
			r.EndDate = futureDate(3)
		}, true},
		{"zero nights", func(r *model.RoomReservationRequest) { r.EndDate = r.StartDate }, true},
		{"past start date", func(r *model.RoomReservationRequest) {
			r.StartDate = "2020-01-01"
			r.EndDate = "2020-01-05"
		}, true},
		{"party too large", func(r *model.RoomReservationRequest) { r.PartySize = 21 }, true},
		{"missing operator ref", func(r *model.RoomReservationRequest) { r.OperatorRef = "" }, true},
		{"invalid room id", func(r *model.RoomReservationRequest) { r.RoomID = "not-an-object-id" }, true},
		{"stay too long", func(r *model.RoomReservationRequest) { r.EndDate = futureDate(90) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := v.Validate(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
