package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"adstore/pkg/entity"
	"adstore/pkg/repository"
)

var _ repository.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository persists categories in the category collection.
type CategoryRepository struct {
	store *Store
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "find category by id", bson.M{"_id": oid})
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	return r.findOne(ctx, "find category by name", bson.M{"name": name})
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]*entity.Category, error) {
	cursor, err := r.store.categories().Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageErr("find all categories", err)
	}
	defer cursor.Close(ctx)

	var categories []*entity.Category
	for cursor.Next(ctx) {
		var doc categoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageErr("find all categories", err)
		}
		categories = append(categories, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("find all categories", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Save(ctx context.Context, c *entity.Category) (string, error) {
	res, err := r.store.categories().InsertOne(ctx, &categoryDoc{Name: c.Name})
	if err != nil {
		return "", storageErr("save category", err)
	}
	c.ID = insertedHex(res)
	return c.ID, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *entity.Category) (bool, error) {
	oid, err := parseObjectID(c.ID)
	if err != nil {
		return false, err
	}
	res, err := r.store.categories().ReplaceOne(ctx, bson.M{"_id": oid}, &categoryDoc{Name: c.Name})
	if err != nil {
		return false, storageErr("update category", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.store.categories().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, storageErr("delete category", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *CategoryRepository) findOne(ctx context.Context, op string, filter bson.M) (*entity.Category, error) {
	var doc categoryDoc
	err := r.store.categories().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return doc.toEntity(), nil
}
