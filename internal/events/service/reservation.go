package service

import (
	"context"

	"posada/internal/admission"
	eventserrors "posada/internal/events/errors"
	"posada/internal/events/repository"
	"posada/internal/events/validator"
	"posada/pkg/config"
	apperrors "posada/pkg/errors"
	"posada/pkg/model"
)

type ReservationService interface {
	Reserve(ctx context.Context, req *model.EventReservationRequest) (*model.AdmissionResult, error)
	ListServices(ctx context.Context) ([]*model.AuxiliaryService, error)
	Stats() admission.Stats
}

type reservationService struct {
	services     repository.ServiceRepository
	reservations repository.ReservationRepository
	controller   *admission.Controller[model.EventIntent]
	validator    *validator.ReservationValidator
	cfg          *config.Config
}

func NewReservationService(
	services repository.ServiceRepository,
	reservations repository.ReservationRepository,
	controller *admission.Controller[model.EventIntent],
	validator *validator.ReservationValidator,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		services:     services,
		reservations: reservations,
		controller:   controller,
		validator:    validator,
		cfg:          cfg,
	}
}

// Reserve validates, narrows the request to currently active services,
// submits the intent and waits for the decision. Inactive services are
// silently dropped; a request left with none is rejected before it ever
// reaches the queue.
func (s *reservationService) Reserve(ctx context.Context, req *model.EventReservationRequest) (*model.AdmissionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Event reservation validation failed", "error", err)
		return nil, apperrors.Validation("Invalid event reservation request", map[string]any{"error": err.Error()})
	}

	intent, err := req.Intent()
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	intent, err = s.resolveServices(ctx, intent)
	if err != nil {
		return nil, err
	}

	ticket, err := s.controller.Submit(intent)
	if err != nil {
		return nil, apperrors.AsAppError(err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.AdmissionWaitTimeout)
	defer cancel()

	outcome, err := ticket.Wait(waitCtx)
	if err != nil {
		s.cfg.Log.Warn("Event reservation wait expired",
			"date", intent.DateKey(),
			"score", ticket.Score(),
		)
		return nil, err
	}

	if !outcome.Accepted {
		return nil, apperrors.Rejection(outcome.Reason, outcome.Message, outcome.Details)
	}

	s.cfg.Log.Info("Event reservation accepted",
		"reservation_id", outcome.Receipt.ReservationID,
		"group_id", outcome.Receipt.GroupID,
		"date", intent.DateKey(),
		"score", outcome.Score,
	)
	return &model.AdmissionResult{
		ReservationID:  outcome.Receipt.ReservationID,
		GroupID:        outcome.Receipt.GroupID,
		Score:          outcome.Score,
		RejectedRivals: outcome.RejectedSiblings,
	}, nil
}

func (s *reservationService) ListServices(ctx context.Context) ([]*model.AuxiliaryService, error) {
	services, err := s.services.ListActive(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list auxiliary services", "error", err)
		return nil, apperrors.Internal("Failed to list auxiliary services", err)
	}
	return services, nil
}

func (s *reservationService) Stats() admission.Stats {
	return s.controller.Stats()
}

// resolveServices narrows the intent to the requested services that are
// currently active. Score and contention are computed from what will actually
// be booked, not from what was asked for.
func (s *reservationService) resolveServices(ctx context.Context, intent model.EventIntent) (model.EventIntent, error) {
	active, err := s.services.FindActiveByIDs(ctx, intent.ServiceIDs)
	if err != nil {
		return intent, apperrors.Internal("Failed to look up auxiliary services", err)
	}

	if len(active) == 0 {
		return intent, apperrors.Rejection(
			apperrors.CodeServicesUnavailable,
			eventserrors.ErrNoActiveServices.Error(),
			map[string]any{"requested_services": intent.ServiceIDs},
		)
	}

	if len(active) < len(intent.ServiceIDs) {
		s.cfg.Log.Warn("Dropping inactive auxiliary services from request",
			"requested", len(intent.ServiceIDs),
			"active", len(active),
		)
	}

	ids := make([]string, 0, len(active))
	for _, svc := range active {
		ids = append(ids, svc.ID)
	}
	intent.ServiceIDs = ids
	return intent, nil
}
