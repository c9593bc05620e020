package outbox

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func NewRepository(db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(CollectionName),
		logger:     logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

// Indexes support reading events in order, by type, and by the patients they touched
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdTime", Value: 1}},
			Options: options.Index().SetName("CreatedTime"),
		},
		{
			Keys:    bson.D{{Key: "eventType", Value: 1}, {Key: "createdTime", Value: -1}},
			Options: options.Index().SetName("EventTypeCreatedTime"),
		},
		{
			Keys: bson.D{{Key: "payload.hns", Value: 1}},
			Options: options.Index().
				SetName("PayloadHNs").
				SetSparse(true),
		},
	}
}

func (r *repository) Initialize(ctx context.Context) error {
	names, err := r.collection.Indexes().CreateMany(ctx, Indexes())
	if err != nil {
		return fmt.Errorf("error creating outbox indexes: %w", err)
	}
	r.logger.Debugw("outbox indexes ready", "indexes", names)
	return nil
}

func (r *repository) Create(ctx context.Context, event Event) error {
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("error inserting %s event: %w", event.EventType, err)
	}
	r.logger.Infow("recorded outbox event", "eventType", event.EventType)
	return nil
}
