package service

import (
	"context"
	"testing"
	"time"

	"posada/internal/admission"
	"posada/internal/events/repository"
	"posada/internal/events/validator"
	"posada/pkg/config"
	mongotx "posada/pkg/db/mongo"
	apperrors "posada/pkg/errors"
	"posada/pkg/logger"
	"posada/pkg/model"
)

type fakeServiceRepo struct {
	findActiveByIDsFunc func(ctx context.Context, ids []string) ([]*model.AuxiliaryService, error)
	listActiveFunc      func(ctx context.Context) ([]*model.AuxiliaryService, error)
}

func (f *fakeServiceRepo) FindActiveByIDs(ctx context.Context, ids []string) ([]*model.AuxiliaryService, error) {
	return f.findActiveByIDsFunc(ctx, ids)
}

func (f *fakeServiceRepo) ListActive(ctx context.Context) ([]*model.AuxiliaryService, error) {
	return f.listActiveFunc(ctx)
}

type fakeReservationRepo struct{}

func (f *fakeReservationRepo) Create(ctx context.Context, reservation *model.EventReservation) error {
	return nil
}

func (f *fakeReservationRepo) CountOverlappingForService(ctx context.Context, serviceID string, date time.Time, start, end time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeReservationRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return nil
}

type stubGateway struct {
	lastIntent *model.EventIntent
}

func (g *stubGateway) Commit(ctx context.Context, intent model.EventIntent, score float64) (*admission.Receipt, error) {
	g.lastIntent = &intent
	return &admission.Receipt{ReservationID: "res-1", GroupID: "grp-1"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AdmissionWaitTimeout: 3 * time.Second,
		Log:                  logger.Discard(),
	}
}

func newTestService(t *testing.T, services repository.ServiceRepository) (ReservationService, *stubGateway) {
	t.Helper()

	gw := &stubGateway{}
	ctrl := admission.New[model.EventIntent](NewPolicy(), gw, admission.Config{
		Name:        "events",
		BatchWindow: 20 * time.Millisecond,
	})
	if err := ctrl.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(ctrl.Stop)

	cfg := testConfig()
	return NewReservationService(services, &fakeReservationRepo{}, ctrl, validator.NewReservationValidator(cfg.Log), cfg), gw
}

func validRequest() *model.EventReservationRequest {
	return &model.EventReservationRequest{
		Date:        "2026-10-15",
		StartTime:   "14:00",
		EndTime:     "18:00",
		PartySize:   30,
		ServiceIDs:  []string{"65b000000000000000000001", "65b000000000000000000002"},
		OperatorRef: "op-1",
		CustomerRef: "cust-1",
	}
}

func activeServices(ids ...string) []*model.AuxiliaryService {
	services := make([]*model.AuxiliaryService, 0, len(ids))
	for _, id := range ids {
		services = append(services, &model.AuxiliaryService{ID: id, Status: model.ServiceActive})
	}
	return services
}

func TestReserve_Accepted(t *testing.T) {
	services := &fakeServiceRepo{
		findActiveByIDsFunc: func(ctx context.Context, ids []string) ([]*model.AuxiliaryService, error) {
			return activeServices(ids...), nil
		},
	}
	svc, _ := newTestService(t, services)

	result, err := svc.Reserve(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if result.ReservationID != "res-1" || result.GroupID != "grp-1" {
		t.Errorf("unexpected result: %+v", result)
	}
	// party*100 + hours*50 + services*20
	want := 30*100.0 + 4*50.0 + 2*20.0
	if result.Score != want {
		t.Errorf("Score = %v, want %v", result.Score, want)
	}
}

func TestReserve_DropsInactiveServices(t *testing.T) {
	active := "65b000000000000000000001"
	services := &fakeServiceRepo{
		findActiveByIDsFunc: func(ctx context.Context, ids []string) ([]*model.AuxiliaryService, error) {
			return activeServices(active), nil
		},
	}
	svc, gw := newTestService(t, services)

	result, err := svc.Reserve(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	if gw.lastIntent == nil {
		t.Fatal("gateway never received the intent")
	}
	if len(gw.lastIntent.ServiceIDs) != 1 || gw.lastIntent.ServiceIDs[0] != active {
		t.Errorf("committed services = %v, want only the active one", gw.lastIntent.ServiceIDs)
	}
	// The dropped service must not inflate the score.
	want := 30*100.0 + 4*50.0 + 1*20.0
	if result.Score != want {
		t.Errorf("Score = %v, want %v", result.Score, want)
	}
}

func TestReserve_NoActiveServicesRejected(t *testing.T) {
	services := &fakeServiceRepo{
		findActiveByIDsFunc: func(ctx context.Context, ids []string) ([]*model.AuxiliaryService, error) {
			return nil, nil
		},
	}
	svc, _ := newTestService(t, services)

	_, err := svc.Reserve(context.Background(), validRequest())
	if err == nil {
		t.Fatal("Reserve() with no active services returned no error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeServicesUnavailable {
		t.Errorf("error code = %q, want %q", appErr.Code, apperrors.CodeServicesUnavailable)
	}
	if appErr.HTTPStatus != 409 {
		t.Errorf("HTTP status = %d, want 409", appErr.HTTPStatus)
	}
}

func TestReserve_ValidationFailure(t *testing.T) {
	svc, _ := newTestService(t, &fakeServiceRepo{})

	req := validRequest()
	req.EndTime = "13:00"

	_, err := svc.Reserve(context.Background(), req)
	if err == nil {
		t.Fatal("Reserve() with inverted hours returned no error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeValidation {
		t.Errorf("error code = %q, want %q", appErr.Code, apperrors.CodeValidation)
	}
}

func TestListServices(t *testing.T) {
	services := &fakeServiceRepo{
		listActiveFunc: func(ctx context.Context) ([]*model.AuxiliaryService, error) {
			return activeServices("65b000000000000000000001"), nil
		},
	}
	svc, _ := newTestService(t, services)

	listed, err := svc.ListServices(context.Background())
	if err != nil {
		t.Fatalf("ListServices() error = %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("ListServices() returned %d services, want 1", len(listed))
	}
}
