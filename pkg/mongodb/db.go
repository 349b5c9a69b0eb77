// Package mongodb implements the repository contract against a denormalized
// MongoDB schema: four independent collections with related entities embedded
// as value snapshots instead of references. The database handle is obtained
// once and shared; the driver owns pooling and thread safety, so the
// repositories add no locking of their own.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"adstore/pkg/repository"
)

const backendName = "mongodb"

// Collection names form the interop contract for anything reading the
// document store directly.
const (
	categoryCollection    = "category"
	clientCollection      = "client"
	advertisingCollection = "advertising"
	programCollection     = "program"
)

// Store holds the shared database handle and hands out repositories bound
// to it.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect creates a new Store by connecting to MongoDB.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Test the connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// NewStore wraps an existing database handle, e.g. one built by a test
// harness.
func NewStore(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// Database returns the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Repositories returns the full repository set backed by this store.
func (s *Store) Repositories() *repository.Set {
	return &repository.Set{
		Categories:   &CategoryRepository{store: s},
		Clients:      &ClientRepository{store: s},
		Advertisings: &AdvertisingRepository{store: s},
		Programs:     &ProgramRepository{store: s},
	}
}

func (s *Store) categories() *mongo.Collection {
	return s.db.Collection(categoryCollection)
}

func (s *Store) clients() *mongo.Collection {
	return s.db.Collection(clientCollection)
}

func (s *Store) advertisings() *mongo.Collection {
	return s.db.Collection(advertisingCollection)
}

func (s *Store) programs() *mongo.Collection {
	return s.db.Collection(programCollection)
}

// storageErr wraps a driver failure in the storage-layer error kind.
func storageErr(op string, err error) error {
	return &repository.StorageError{Backend: backendName, Op: op, Err: err}
}

// insertedHex returns the hex form of the object ID the driver assigned.
func insertedHex(res *mongo.InsertOneResult) string {
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex()
}

// parseObjectID decodes a 24-hex-character object ID. A malformed ID fails
// deterministically instead of silently matching nothing.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q: %v", repository.ErrInvalidID, id, err)
	}
	return oid, nil
}
