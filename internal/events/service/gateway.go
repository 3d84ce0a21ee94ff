package service

import (
	"context"

	"posada/internal/admission"
	"posada/internal/events/repository"
	groupsrepo "posada/internal/groups/repository"
	"posada/pkg/config"
	apperrors "posada/pkg/errors"
	"posada/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// eventGateway is the durable side of event admission. Every requested
// service is re-checked for an overlapping booking on the event day inside
// the commit transaction; one unavailable service fails the whole request.
type eventGateway struct {
	reservations repository.ReservationRepository
	groups       groupsrepo.GroupRepository
	cfg          *config.Config
}

func NewGateway(
	reservations repository.ReservationRepository,
	groups groupsrepo.GroupRepository,
	cfg *config.Config,
) admission.Gateway[model.EventIntent] {
	return &eventGateway{
		reservations: reservations,
		groups:       groups,
		cfg:          cfg,
	}
}

func (g *eventGateway) Commit(ctx context.Context, intent model.EventIntent, score float64) (*admission.Receipt, error) {
	var receipt *admission.Receipt

	err := g.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		var unavailable []string
		for _, serviceID := range intent.ServiceIDs {
			booked, err := g.reservations.CountOverlappingForService(sessCtx, serviceID, intent.Date, intent.StartTime, intent.EndTime)
			if err != nil {
				return err
			}
			if booked > 0 {
				unavailable = append(unavailable, serviceID)
			}
		}
		if len(unavailable) > 0 {
			return &admission.ConflictError{
				Reason:  apperrors.CodeServicesUnavailable,
				Message: "some auxiliary services are already booked for the requested hours",
				Details: map[string]any{
					"date":                 intent.DateKey(),
					"unavailable_services": unavailable,
				},
			}
		}

		group := &model.ReservationGroup{
			Kind:        model.GroupKindEvent,
			OperatorRef: intent.OperatorRef,
			CustomerRef: intent.CustomerRef,
		}
		if err := g.groups.Create(sessCtx, group); err != nil {
			return err
		}

		reservation := &model.EventReservation{
			GroupID:     group.ID,
			CustomerRef: intent.CustomerRef,
			PartySize:   intent.PartySize,
			Date:        intent.Date,
			StartTime:   intent.StartTime,
			EndTime:     intent.EndTime,
			ServiceIDs:  intent.ServiceIDs,
			Status:      model.ReservationActive,
		}
		if err := g.reservations.Create(sessCtx, reservation); err != nil {
			return err
		}

		receipt = &admission.Receipt{
			ReservationID: reservation.ID,
			GroupID:       group.ID,
			Details: map[string]any{
				"date":     intent.DateKey(),
				"services": len(intent.ServiceIDs),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}
