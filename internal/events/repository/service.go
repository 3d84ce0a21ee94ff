package repository

import (
	"context"
	"fmt"
	"time"

	"posada/pkg/config"
	"posada/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ServiceCollectionName = "AuxiliaryServices"
)

type mongoServiceRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type ServiceRepository interface {
	FindActiveByIDs(ctx context.Context, ids []string) ([]*model.AuxiliaryService, error)
	ListActive(ctx context.Context) ([]*model.AuxiliaryService, error)
}

func NewMongoServiceRepository(cfg *config.Config) ServiceRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoServiceRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(ServiceCollectionName),
	}
}

// withTimeout wraps the context with a timeout unless it is already inside a
// transaction; a SessionContext cannot be wrapped without breaking the
// transaction semantics.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoServiceRepository) FindActiveByIDs(ctx context.Context, ids []string) ([]*model.AuxiliaryService, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			// Malformed IDs simply never match; the validator already
			// rejected them on the request path.
			continue
		}
		objectIDs = append(objectIDs, oid)
	}

	filter := bson.M{
		"_id":    bson.M{"$in": objectIDs},
		"status": model.ServiceActive,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find auxiliary services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []*model.AuxiliaryService
	if err = cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode auxiliary services: %w", err)
	}

	return services, nil
}

func (r *mongoServiceRepository) ListActive(ctx context.Context) ([]*model.AuxiliaryService, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": model.ServiceActive}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list auxiliary services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []*model.AuxiliaryService
	if err = cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode auxiliary services: %w", err)
	}

	return services, nil
}
