package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"posada/internal/admission"
	"posada/internal/rooms/repository"
	"posada/internal/rooms/validator"
	"posada/pkg/config"
	mongotx "posada/pkg/db/mongo"
	apperrors "posada/pkg/errors"
	"posada/pkg/logger"
	"posada/pkg/model"
)

type fakeRoomRepo struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.Room, error)
	findAvailableFunc func(ctx context.Context, furnished, privateBath bool) ([]*model.Room, error)
	setStatusFunc     func(ctx context.Context, id string, status string) error
}

func (f *fakeRoomRepo) FindByID(ctx context.Context, id string) (*model.Room, error) {
	return f.findByIDFunc(ctx, id)
}

func (f *fakeRoomRepo) FindAvailable(ctx context.Context, furnished, privateBath bool) ([]*model.Room, error) {
	return f.findAvailableFunc(ctx, furnished, privateBath)
}

func (f *fakeRoomRepo) SetStatus(ctx context.Context, id string, status string) error {
	if f.setStatusFunc != nil {
		return f.setStatusFunc(ctx, id, status)
	}
	return nil
}

type fakeReservationRepo struct {
	countOverlappingFunc func(ctx context.Context, roomID string, start, end time.Time) (int64, error)
}

func (f *fakeReservationRepo) Create(ctx context.Context, reservation *model.RoomReservation) error {
	return nil
}

func (f *fakeReservationRepo) CountOverlapping(ctx context.Context, roomID string, start, end time.Time) (int64, error) {
	if f.countOverlappingFunc != nil {
		return f.countOverlappingFunc(ctx, roomID, start, end)
	}
	return 0, nil
}

func (f *fakeReservationRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return nil
}

type stubGateway struct{}

func (stubGateway) Commit(ctx context.Context, intent model.RoomIntent, score float64) (*admission.Receipt, error) {
	return &admission.Receipt{
		ReservationID: "res-" + intent.RoomID,
		GroupID:       "grp-" + intent.RoomID,
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AdmissionWaitTimeout: 3 * time.Second,
		Log:                  logger.Discard(),
	}
}

func newTestService(t *testing.T, rooms repository.RoomRepository, reservations repository.ReservationRepository) (ReservationService, *admission.Controller[model.RoomIntent]) {
	t.Helper()

	ctrl := admission.New[model.RoomIntent](NewPolicy(), stubGateway{}, admission.Config{
		Name:        "rooms",
		BatchWindow: 20 * time.Millisecond,
	})
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(ctrl.Stop)

	cfg := testConfig()
	return NewReservationService(rooms, reservations, ctrl, validator.NewReservationValidator(cfg.Log), cfg), ctrl
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func validRequest() *model.RoomReservationRequest {
	return &model.RoomReservationRequest{
		Furnished:   true,
		PrivateBath: false,
		StartDate:   futureDate(7),
		EndDate:     futureDate(11),
		PartySize:   2,
		OperatorRef: "op-1",
		CustomerRef: "cust-1",
	}
}

func TestReserve_ExplicitRoomAccepted(t *testing.T) {
	roomID := "65a000000000000000000001"
	rooms := &fakeRoomRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Room, error) {
			return &model.Room{ID: id, Status: model.RoomAvailable}, nil
		},
	}
	svc, _ := newTestService(t, rooms, &fakeReservationRepo{})

	req := validRequest()
	req.RoomID = roomID

	result, err := svc.Reserve(context.Background(), req)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if result.RoomID != roomID {
		t.Errorf("RoomID = %q, want %q", result.RoomID, roomID)
	}
	if result.ReservationID != "res-"+roomID {
		t.Errorf("ReservationID = %q", result.ReservationID)
	}
	if result.Score != 402 {
		t.Errorf("Score = %v, want 402", result.Score)
	}
}

func TestReserve_SkipsDurablyConflictedCandidate(t *testing.T) {
	taken := "65a000000000000000000001"
	free := "65a000000000000000000002"
	rooms := &fakeRoomRepo{
		findAvailableFunc: func(ctx context.Context, furnished, privateBath bool) ([]*model.Room, error) {
			return []*model.Room{
				{ID: taken, Status: model.RoomAvailable},
				{ID: free, Status: model.RoomAvailable},
			}, nil
		},
	}
	reservations := &fakeReservationRepo{
		countOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time) (int64, error) {
			if roomID == taken {
				return 1, nil
			}
			return 0, nil
		},
	}
	svc, _ := newTestService(t, rooms, reservations)

	result, err := svc.Reserve(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if result.RoomID != free {
		t.Errorf("RoomID = %q, want the unreserved candidate %q", result.RoomID, free)
	}
}

func TestReserve_SkipsPendingConflictedCandidate(t *testing.T) {
	contested := "65a000000000000000000001"
	free := "65a000000000000000000002"
	rooms := &fakeRoomRepo{
		findAvailableFunc: func(ctx context.Context, furnished, privateBath bool) ([]*model.Room, error) {
			return []*model.Room{
				{ID: contested, Status: model.RoomAvailable},
				{ID: free, Status: model.RoomAvailable},
			}, nil
		},
	}
	svc, ctrl := newTestService(t, rooms, &fakeReservationRepo{})

	req := validRequest()
	intent, err := req.Intent()
	if err != nil {
		t.Fatalf("Intent() error = %v", err)
	}
	intent.RoomID = contested
	pending, err := ctrl.Submit(intent)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	result, err := svc.Reserve(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if result.RoomID != free {
		t.Errorf("RoomID = %q, want the uncontested candidate %q", result.RoomID, free)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := pending.Wait(ctx); err != nil {
		t.Fatalf("Wait() on pending ticket error = %v", err)
	}
}

func TestReserve_NoCandidateRejected(t *testing.T) {
	rooms := &fakeRoomRepo{
		findAvailableFunc: func(ctx context.Context, furnished, privateBath bool) ([]*model.Room, error) {
			return nil, nil
		},
	}
	svc, _ := newTestService(t, rooms, &fakeReservationRepo{})

	_, err := svc.Reserve(context.Background(), validRequest())
	if err == nil {
		t.Fatal("Reserve() with no candidates returned no error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeRoomReserved {
		t.Errorf("error code = %q, want %q", appErr.Code, apperrors.CodeRoomReserved)
	}
	if appErr.HTTPStatus != 409 {
		t.Errorf("HTTP status = %d, want 409", appErr.HTTPStatus)
	}
}

func TestReserve_ValidationFailure(t *testing.T) {
	svc, _ := newTestService(t, &fakeRoomRepo{}, &fakeReservationRepo{})

	req := validRequest()
	req.PartySize = 0

	_, err := svc.Reserve(context.Background(), req)
	if err == nil {
		t.Fatal("Reserve() with zero party size returned no error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("error code = %q, want %q", appErr.Code, apperrors.CodeValidation)
	}
}

func TestReserve_RoomNotFound(t *testing.T) {
	rooms := &fakeRoomRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.Room, error) {
			return nil, fmt.Errorf("room not found")
		},
	}
	svc, _ := newTestService(t, rooms, &fakeReservationRepo{})

	req := validRequest()
	req.RoomID = "65a000000000000000000009"

	if _, err := svc.Reserve(context.Background(), req); err == nil {
		t.Fatal("Reserve() with unknown room returned no error")
	}
}
