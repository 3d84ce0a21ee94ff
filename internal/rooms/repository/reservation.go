package repository

import (
	"context"
	"fmt"
	"time"

	roomserrors "posada/internal/rooms/errors"
	"posada/pkg/config"
	mongotx "posada/pkg/db/mongo"
	"posada/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ReservationCollectionName = "RoomReservations"
)

// blockingStatuses are the reservation states that keep a room taken for the
// purposes of the durable overlap re-check.
var blockingStatuses = []string{
	model.ReservationActive,
	model.ReservationPending,
	model.ReservationConfirmed,
}

type mongoReservationRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.RoomReservation) error
	CountOverlapping(ctx context.Context, roomID string, start, end time.Time) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(ReservationCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.RoomReservation) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reservation.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		return fmt.Errorf("failed to create room reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

// CountOverlapping counts blocking reservations on the room whose half-open
// date range intersects [start, end).
func (r *mongoReservationRepository) CountOverlapping(ctx context.Context, roomID string, start, end time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, roomID)
	}

	filter := bson.M{
		"room_id":    objectID.Hex(),
		"status":     bson.M{"$in": blockingStatuses},
		"start_date": bson.M{"$lt": end},
		"end_date":   bson.M{"$gt": start},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping reservations: %w", err)
	}
	return count, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
