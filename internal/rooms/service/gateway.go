package service

import (
	"context"

	"posada/internal/admission"
	groupsrepo "posada/internal/groups/repository"
	"posada/internal/rooms/repository"
	"posada/pkg/config"
	apperrors "posada/pkg/errors"
	"posada/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// roomGateway is the durable side of room admission. The overlap re-check
// and the writes run in one transaction: the in-memory registry cannot see
// reservations committed outside this process.
type roomGateway struct {
	rooms        repository.RoomRepository
	reservations repository.ReservationRepository
	groups       groupsrepo.GroupRepository
	cfg          *config.Config
}

func NewGateway(
	rooms repository.RoomRepository,
	reservations repository.ReservationRepository,
	groups groupsrepo.GroupRepository,
	cfg *config.Config,
) admission.Gateway[model.RoomIntent] {
	return &roomGateway{
		rooms:        rooms,
		reservations: reservations,
		groups:       groups,
		cfg:          cfg,
	}
}

func (g *roomGateway) Commit(ctx context.Context, intent model.RoomIntent, score float64) (*admission.Receipt, error) {
	var receipt *admission.Receipt

	err := g.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		overlapping, err := g.reservations.CountOverlapping(sessCtx, intent.RoomID, intent.StartDate, intent.EndDate)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return &admission.ConflictError{
				Reason:  apperrors.CodeRoomReserved,
				Message: "room is already reserved for the requested dates",
				Details: map[string]any{
					"room_id":    intent.RoomID,
					"start_date": intent.StartDate.Format("2006-01-02"),
					"end_date":   intent.EndDate.Format("2006-01-02"),
				},
			}
		}

		group := &model.ReservationGroup{
			Kind:        model.GroupKindRoom,
			OperatorRef: intent.OperatorRef,
			CustomerRef: intent.CustomerRef,
		}
		if err := g.groups.Create(sessCtx, group); err != nil {
			return err
		}

		reservation := &model.RoomReservation{
			GroupID:     group.ID,
			RoomID:      intent.RoomID,
			CustomerRef: intent.CustomerRef,
			PartySize:   intent.PartySize,
			Furnished:   intent.Furnished,
			PrivateBath: intent.PrivateBath,
			StartDate:   intent.StartDate,
			EndDate:     intent.EndDate,
			Status:      model.ReservationActive,
		}
		if err := g.reservations.Create(sessCtx, reservation); err != nil {
			return err
		}

		if err := g.rooms.SetStatus(sessCtx, intent.RoomID, model.RoomOccupied); err != nil {
			return err
		}

		receipt = &admission.Receipt{
			ReservationID: reservation.ID,
			GroupID:       group.ID,
			Details: map[string]any{
				"room_id": intent.RoomID,
				"nights":  intent.Nights(),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}
