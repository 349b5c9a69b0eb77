package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"adstore/pkg/entity"
	"adstore/pkg/repository"
)

var _ repository.AdvertisingRepository = (*AdvertisingRepository)(nil)

// AdvertisingRepository persists advertisings in the advertising collection,
// with the category embedded as a value snapshot. MongoDB enforces no
// foreign keys, so the category's existence is checked here at write time.
type AdvertisingRepository struct {
	store *Store
}

func (r *AdvertisingRepository) FindByID(ctx context.Context, id string) (*entity.Advertising, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "find advertising by id", bson.M{"_id": oid})
}

func (r *AdvertisingRepository) FindByName(ctx context.Context, name string) (*entity.Advertising, error) {
	return r.findOne(ctx, "find advertising by name", bson.M{"name": name})
}

func (r *AdvertisingRepository) FindByNaturalKey(ctx context.Context, name, measurement string, unitPrice decimal.Decimal) (*entity.Advertising, error) {
	price, err := primitive.ParseDecimal128(unitPrice.String())
	if err != nil {
		return nil, fmt.Errorf("encode unit price %q: %w", unitPrice.String(), err)
	}
	return r.findOne(ctx, "find advertising by natural key",
		bson.M{"name": name, "measurement": measurement, "unitPrice": price})
}

func (r *AdvertisingRepository) FindAll(ctx context.Context) ([]*entity.Advertising, error) {
	cursor, err := r.store.advertisings().Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageErr("find all advertisings", err)
	}
	defer cursor.Close(ctx)

	var ads []*entity.Advertising
	for cursor.Next(ctx) {
		var doc advertisingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageErr("find all advertisings", err)
		}
		a, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		ads = append(ads, a)
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("find all advertisings", err)
	}
	return ads, nil
}

func (r *AdvertisingRepository) Save(ctx context.Context, a *entity.Advertising) (string, error) {
	doc, err := newAdvertisingDoc(a)
	if err != nil {
		return "", err
	}
	if err := r.requireCategory(ctx, doc.Category.ID); err != nil {
		return "", err
	}
	res, err := r.store.advertisings().InsertOne(ctx, doc)
	if err != nil {
		return "", storageErr("save advertising", err)
	}
	a.ID = insertedHex(res)
	a.UpdatedAt = doc.UpdatedAt
	return a.ID, nil
}

func (r *AdvertisingRepository) Update(ctx context.Context, a *entity.Advertising) (bool, error) {
	oid, err := parseObjectID(a.ID)
	if err != nil {
		return false, err
	}
	doc, err := newAdvertisingDoc(a)
	if err != nil {
		return false, err
	}
	if err := r.requireCategory(ctx, doc.Category.ID); err != nil {
		return false, err
	}
	res, err := r.store.advertisings().ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return false, storageErr("update advertising", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *AdvertisingRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.store.advertisings().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, storageErr("delete advertising", err)
	}
	return res.DeletedCount > 0, nil
}

// requireCategory verifies the referenced category exists before a snapshot
// of it is embedded.
func (r *AdvertisingRepository) requireCategory(ctx context.Context, id primitive.ObjectID) error {
	n, err := r.store.categories().CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr("check category reference", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: category %s", repository.ErrMissingReference, id.Hex())
	}
	return nil
}

func (r *AdvertisingRepository) findOne(ctx context.Context, op string, filter bson.M) (*entity.Advertising, error) {
	var doc advertisingDoc
	err := r.store.advertisings().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return doc.toEntity()
}
