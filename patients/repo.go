package patients

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/asthma-connect/clinic/store"
)

const (
	patientsCollectionName = "patients"
)

//go:generate mockgen --build_flags=--mod=mod -source=./repo.go -destination=./test/mock_repository.go -package test MockRepository

type Repository interface {
	Get(ctx context.Context, hn string) (*Patient, error)
	GetByViewToken(ctx context.Context, token string) (*Patient, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error)
	Create(ctx context.Context, patient Patient) (*Patient, error)
	UpdateStatus(ctx context.Context, hn string, status Status) (*Patient, error)
	UpdateViewToken(ctx context.Context, hn string, token string) (*Patient, error)
}

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(patientsCollectionName),
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
			},
			Options: options.Index().
				SetBackground(true).
				SetUnique(true).
				SetName("UniqueHN"),
		},
		{
			Keys: bson.D{
				{Key: "viewToken", Value: 1},
			},
			Options: options.Index().
				SetBackground(true).
				SetUnique(true).
				SetSparse(true).
				SetName("UniqueViewToken"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "hn", Value: 1},
			},
			Options: options.Index().
				SetBackground(true).
				SetName("StatusHN"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, hn string) (*Patient, error) {
	return r.findOne(ctx, bson.M{"hn": hn})
}

func (r *repository) GetByViewToken(ctx context.Context, token string) (*Patient, error) {
	return r.findOne(ctx, bson.M{"viewToken": token})
}

func (r *repository) findOne(ctx context.Context, selector bson.M) (*Patient, error) {
	patient := &Patient{}
	err := r.collection.FindOne(ctx, selector).Decode(patient)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return patient, nil
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error) {
	opts := pagination.Apply(options.Find()).
		SetSort(bson.D{{Key: "hn", Value: 1}})

	selector := bson.M{}
	if filter != nil {
		if filter.Status != nil {
			selector["status"] = *filter.Status
		}
		if len(filter.HNs) > 0 {
			selector["hn"] = bson.M{"$in": filter.HNs}
		}
		if filter.Search != nil && *filter.Search != "" {
			search := primitiveRegex(*filter.Search)
			selector["$or"] = bson.A{
				bson.M{"hn": search},
				bson.M{"firstName": search},
				bson.M{"lastName": search},
			}
		}
	}

	cursor, err := r.collection.Find(ctx, selector, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing patients: %w", err)
	}

	patients := make([]*Patient, 0)
	if err = cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("error decoding patients list: %w", err)
	}

	return patients, nil
}

func (r *repository) Create(ctx context.Context, patient Patient) (*Patient, error) {
	now := time.Now()
	patient.Id = nil
	patient.CreatedTime = now
	patient.UpdatedTime = now

	if _, err := r.collection.InsertOne(ctx, patient); err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error creating patient: %w", err)
	}

	return r.Get(ctx, patient.HN)
}

func (r *repository) UpdateStatus(ctx context.Context, hn string, status Status) (*Patient, error) {
	return r.update(ctx, hn, bson.M{"status": status})
}

func (r *repository) UpdateViewToken(ctx context.Context, hn string, token string) (*Patient, error) {
	return r.update(ctx, hn, bson.M{"viewToken": token})
}

func (r *repository) update(ctx context.Context, hn string, set bson.M) (*Patient, error) {
	set["updatedTime"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	patient := &Patient{}
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"hn": hn}, bson.M{"$set": set}, opts).Decode(patient)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error updating patient: %w", err)
	}

	return patient, nil
}

func primitiveRegex(search string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
}
