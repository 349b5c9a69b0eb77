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

var _ repository.ClientRepository = (*ClientRepository)(nil)

// ClientRepository persists clients in the client collection.
type ClientRepository struct {
	store *Store
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*entity.Client, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "find client by id", bson.M{"_id": oid})
}

func (r *ClientRepository) FindByUsername(ctx context.Context, username string) (*entity.Client, error) {
	return r.findOne(ctx, "find client by username", bson.M{"username": username})
}

func (r *ClientRepository) FindByEmailAndPassword(ctx context.Context, email, password string) (*entity.Client, error) {
	return r.findOne(ctx, "find client by email and password", bson.M{"email": email, "password": password})
}

func (r *ClientRepository) FindAll(ctx context.Context) ([]*entity.Client, error) {
	cursor, err := r.store.clients().Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageErr("find all clients", err)
	}
	defer cursor.Close(ctx)

	var clients []*entity.Client
	for cursor.Next(ctx) {
		var doc clientDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageErr("find all clients", err)
		}
		clients = append(clients, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("find all clients", err)
	}
	return clients, nil
}

func (r *ClientRepository) Save(ctx context.Context, c *entity.Client) (string, error) {
	res, err := r.store.clients().InsertOne(ctx, newClientDoc(c))
	if err != nil {
		return "", storageErr("save client", err)
	}
	c.ID = insertedHex(res)
	return c.ID, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *entity.Client) (bool, error) {
	oid, err := parseObjectID(c.ID)
	if err != nil {
		return false, err
	}
	res, err := r.store.clients().ReplaceOne(ctx, bson.M{"_id": oid}, newClientDoc(c))
	if err != nil {
		return false, storageErr("update client", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.store.clients().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, storageErr("delete client", err)
	}
	return res.DeletedCount > 0, nil
}

// DeleteClientAndPrograms removes the client's program documents by their
// embedded client snapshot ID, then the client itself. The two deletes are
// not atomic across collections; the document store offers single-document
// atomicity only.
func (r *ClientRepository) DeleteClientAndPrograms(ctx context.Context, id string) (int64, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return 0, err
	}
	programs, err := r.store.programs().DeleteMany(ctx, bson.M{"client._id": oid})
	if err != nil {
		return 0, storageErr("delete client and programs", err)
	}
	if _, err := r.store.clients().DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return 0, storageErr("delete client and programs", err)
	}
	return programs.DeletedCount, nil
}

func (r *ClientRepository) findOne(ctx context.Context, op string, filter bson.M) (*entity.Client, error) {
	var doc clientDoc
	err := r.store.clients().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return doc.toEntity(), nil
}
