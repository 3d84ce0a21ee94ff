package service

import (
	"context"
	"errors"

	"posada/internal/admission"
	roomserrors "posada/internal/rooms/errors"
	"posada/internal/rooms/repository"
	"posada/internal/rooms/validator"
	"posada/pkg/config"
	apperrors "posada/pkg/errors"
	"posada/pkg/model"
)

type ReservationService interface {
	Reserve(ctx context.Context, req *model.RoomReservationRequest) (*model.AdmissionResult, error)
	Stats() admission.Stats
}

type reservationService struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	controller   *admission.Controller[model.RoomIntent]
	validator    *validator.ReservationValidator
	cfg          *config.Config
}

func NewReservationService(
	rooms repository.RoomRepository,
	reservations repository.ReservationRepository,
	controller *admission.Controller[model.RoomIntent],
	validator *validator.ReservationValidator,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		rooms:        rooms,
		reservations: reservations,
		controller:   controller,
		validator:    validator,
		cfg:          cfg,
	}
}

// Reserve validates, resolves a concrete room, submits the intent to the
// admission controller and waits for the decision. The wait is bounded by
// AdmissionWaitTimeout; on expiry the caller gets a timeout but the request
// stays queued and may still be committed.
func (s *reservationService) Reserve(ctx context.Context, req *model.RoomReservationRequest) (*model.AdmissionResult, error) {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Room reservation validation failed", "error", err)
		return nil, apperrors.Validation("Invalid room reservation request", map[string]any{"error": err.Error()})
	}

	intent, err := req.Intent()
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	intent, err = s.resolveRoom(ctx, intent)
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
		s.cfg.Log.Warn("Room reservation wait expired",
			"room_id", intent.RoomID,
			"score", ticket.Score(),
		)
		return nil, err
	}

	if !outcome.Accepted {
		return nil, apperrors.Rejection(outcome.Reason, outcome.Message, outcome.Details)
	}

	s.cfg.Log.Info("Room reservation accepted",
		"reservation_id", outcome.Receipt.ReservationID,
		"group_id", outcome.Receipt.GroupID,
		"room_id", intent.RoomID,
		"score", outcome.Score,
	)
	return &model.AdmissionResult{
		ReservationID:  outcome.Receipt.ReservationID,
		GroupID:        outcome.Receipt.GroupID,
		RoomID:         intent.RoomID,
		Score:          outcome.Score,
		RejectedRivals: outcome.RejectedSiblings,
	}, nil
}

func (s *reservationService) Stats() admission.Stats {
	return s.controller.Stats()
}

// resolveRoom fixes the concrete room the intent contends on. A requested
// room is verified to exist; otherwise the available rooms matching the
// feature filter are scanned for the first one with neither a pending nor a
// durable conflict over the requested dates.
func (s *reservationService) resolveRoom(ctx context.Context, intent model.RoomIntent) (model.RoomIntent, error) {
	if intent.RoomID != "" {
		if _, err := s.rooms.FindByID(ctx, intent.RoomID); err != nil {
			if errors.Is(err, roomserrors.ErrRoomNotFound) {
				return intent, apperrors.NotFoundWithID("Room", intent.RoomID)
			}
			if errors.Is(err, roomserrors.ErrInvalidID) {
				return intent, apperrors.InvalidInput("Invalid room ID format")
			}
			return intent, apperrors.Internal("Failed to look up room", err)
		}
		return intent, nil
	}

	candidates, err := s.rooms.FindAvailable(ctx, intent.Furnished, intent.PrivateBath)
	if err != nil {
		return intent, apperrors.Internal("Failed to list available rooms", err)
	}

	for _, room := range candidates {
		probe := intent
		probe.RoomID = room.ID

		if s.controller.HasPendingConflict(probe) {
			continue
		}

		overlapping, err := s.reservations.CountOverlapping(ctx, room.ID, intent.StartDate, intent.EndDate)
		if err != nil {
			s.cfg.Log.Error("Failed to check room availability", "room_id", room.ID, "error", err)
			continue
		}
		if overlapping > 0 {
			continue
		}

		intent.RoomID = room.ID
		return intent, nil
	}

	s.cfg.Log.Info("No room available for request",
		"furnished", intent.Furnished,
		"private_bath", intent.PrivateBath,
		"start_date", intent.StartDate.Format("2006-01-02"),
		"end_date", intent.EndDate.Format("2006-01-02"),
	)
	return intent, apperrors.Rejection(
		apperrors.CodeRoomReserved,
		roomserrors.ErrNoRoomAvailable.Error(),
		map[string]any{
			"furnished":    intent.Furnished,
			"private_bath": intent.PrivateBath,
		},
	)
}
