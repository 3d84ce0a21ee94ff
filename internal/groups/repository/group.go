package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"posada/pkg/config"
	"posada/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "ReservationGroups"
)

var ErrNotFound = errors.New("reservation group not found")

type mongoGroupRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

// GroupRepository persists the parent record every accepted reservation hangs
// off. Both gateways create one inside the commit transaction.
type GroupRepository interface {
	Create(ctx context.Context, group *model.ReservationGroup) error
	FindByID(ctx context.Context, id string) (*model.ReservationGroup, error)
}

func NewMongoGroupRepository(cfg *config.Config) GroupRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoGroupRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoGroupRepository) Create(ctx context.Context, group *model.ReservationGroup) error {
	group.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		return fmt.Errorf("failed to create reservation group: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		group.ID = oid.Hex()
	}
	return nil
}

func (r *mongoGroupRepository) FindByID(ctx context.Context, id string) (*model.ReservationGroup, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation group ID: %s", id)
	}

	var group model.ReservationGroup
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation group: %w", err)
	}

	return &group, nil
}
