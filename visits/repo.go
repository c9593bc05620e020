package visits

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/asthma-connect/clinic/store"
)

const (
	visitsCollectionName = "visits"
)

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_repository.go -package test MockRepository

type Repository interface {
	Create(ctx context.Context, visit Visit) (*Visit, error)
	CreateMany(ctx context.Context, newVisits []Visit) (int, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Visit, error)
	UpdateNextAppointment(ctx context.Context, hn string, date time.Time, next time.Time) (*Visit, error)
}

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(visitsCollectionName),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

type repository struct {
	collection *mongo.Collection
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "hn", Value: 1},
				{Key: "date", Value: -1},
			},
			Options: options.Index().
				SetBackground(true).
				SetName("PatientVisits"),
		},
		{
			Keys: bson.D{
				{Key: "date", Value: -1},
			},
			Options: options.Index().
				SetBackground(true).
				SetName("VisitDate"),
		},
		{
			Keys: bson.D{
				{Key: "nextAppointment", Value: 1},
			},
			Options: options.Index().
				SetBackground(true).
				SetSparse(true).
				SetName("NextAppointment"),
		},
	})
	return err
}

func (r *repository) Create(ctx context.Context, visit Visit) (*Visit, error) {
	visit.Id = nil
	visit.CreatedTime = time.Now()

	res, err := r.collection.InsertOne(ctx, visit)
	if err != nil {
		return nil, fmt.Errorf("error creating visit: %w", err)
	}

	created := &Visit{}
	if err := r.collection.FindOne(ctx, bson.M{"_id": res.InsertedID}).Decode(created); err != nil {
		return nil, fmt.Errorf("error fetching created visit: %w", err)
	}
	return created, nil
}

func (r *repository) CreateMany(ctx context.Context, visits []Visit) (int, error) {
	if len(visits) == 0 {
		return 0, nil
	}

	now := time.Now()
	documents := make([]interface{}, 0, len(visits))
	for _, visit := range visits {
		visit.Id = nil
		visit.CreatedTime = now
		documents = append(documents, visit)
	}

	res, err := r.collection.InsertMany(ctx, documents)
	if err != nil {
		return 0, fmt.Errorf("error creating visits: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Visit, error) {
	opts := pagination.Apply(options.Find()).
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})

	selector := bson.M{}
	if filter != nil {
		if filter.HN != nil {
			selector["hn"] = *filter.HN
		}
		date := bson.M{}
		if filter.From != nil {
			date["$gte"] = *filter.From
		}
		if filter.To != nil {
			date["$lte"] = *filter.To
		}
		if len(date) > 0 {
			selector["date"] = date
		}
	}

	cursor, err := r.collection.Find(ctx, selector, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing visits: %w", err)
	}

	visits := make([]*Visit, 0)
	if err = cursor.All(ctx, &visits); err != nil {
		return nil, fmt.Errorf("error decoding visits list: %w", err)
	}

	return visits, nil
}

// UpdateNextAppointment back-fills the next appointment of the most recently recorded visit of a patient on a given day
func (r *repository) UpdateNextAppointment(ctx context.Context, hn string, date time.Time, next time.Time) (*Visit, error) {
	selector := bson.M{
		"hn":   hn,
		"date": date,
	}
	update := bson.M{
		"$set":   bson.M{"nextAppointment": next},
		"$unset": bson.M{"nextAppointmentText": ""},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "_id", Value: -1}})

	visit := &Visit{}
	err := r.collection.FindOneAndUpdate(ctx, selector, update, opts).Decode(visit)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error updating visit: %w", err)
	}

	return visit, nil
}
