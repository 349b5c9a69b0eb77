package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"adstore/pkg/entity"
	"adstore/pkg/repository"
)

var _ repository.ProgramRepository = (*ProgramRepository)(nil)

// ProgramRepository persists programs in the program collection. Each
// document embeds a full snapshot of the client and of every booked
// advertising; snapshots are read back from their home collections at write
// time, which doubles as the referential check MongoDB itself won't do.
// The whole document is written in one operation, so a program either
// becomes fully visible or not at all.
type ProgramRepository struct {
	store *Store
}

func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*entity.Program, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc programDoc
	err = r.store.programs().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find program by id", err)
	}
	return doc.toEntity()
}

func (r *ProgramRepository) FindAll(ctx context.Context) ([]*entity.Program, error) {
	cursor, err := r.store.programs().Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storageErr("find all programs", err)
	}
	defer cursor.Close(ctx)

	var programs []*entity.Program
	for cursor.Next(ctx) {
		var doc programDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, storageErr("find all programs", err)
		}
		p, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, storageErr("find all programs", err)
	}
	return programs, nil
}

func (r *ProgramRepository) Save(ctx context.Context, p *entity.Program) (string, error) {
	doc, err := r.buildDoc(ctx, p)
	if err != nil {
		return "", err
	}
	res, err := r.store.programs().InsertOne(ctx, doc)
	if err != nil {
		return "", storageErr("save program", err)
	}
	p.ID = insertedHex(res)
	p.CreatedAt = doc.CreatedAt
	return p.ID, nil
}

// Update replaces the whole document, advertising list included, so the
// line-item set is reconciled on every update.
func (r *ProgramRepository) Update(ctx context.Context, p *entity.Program) (bool, error) {
	oid, err := parseObjectID(p.ID)
	if err != nil {
		return false, err
	}
	doc, err := r.buildDoc(ctx, p)
	if err != nil {
		return false, err
	}
	res, err := r.store.programs().ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return false, storageErr("update program", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *ProgramRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.store.programs().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, storageErr("delete program", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *ProgramRepository) SaveAdvertisingToProgram(ctx context.Context, programID string, items []entity.LineItem) (bool, error) {
	oid, err := parseObjectID(programID)
	if err != nil {
		return false, err
	}

	var doc programDoc
	err = r.store.programs().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, storageErr("save advertising to program", err)
	}

	merged := doc.AdvertisingList
	for _, item := range items {
		itemDoc, err := r.snapshotAdvertising(ctx, item.Advertising.ID)
		if err != nil {
			return false, err
		}
		merged = mergeLineItem(merged, lineItemDoc{Advertising: itemDoc, Quantity: item.Quantity})
	}

	// One $set keeps the write atomic at the document level.
	_, err = r.store.programs().UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"advertisingList": merged}})
	if err != nil {
		return false, storageErr("save advertising to program", err)
	}
	return true, nil
}

func (r *ProgramRepository) DeleteAdvertisingFromProgram(ctx context.Context, programID, advertisingID string) (bool, error) {
	oid, err := parseObjectID(programID)
	if err != nil {
		return false, err
	}
	adOID, err := parseObjectID(advertisingID)
	if err != nil {
		return false, err
	}
	res, err := r.store.programs().UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"advertisingList": bson.M{"advertising._id": adOID}}})
	if err != nil {
		return false, storageErr("delete advertising from program", err)
	}
	return res.ModifiedCount > 0, nil
}

// buildDoc maps a program for writing, resolving the client and every booked
// advertising to the snapshots currently stored in their home collections.
func (r *ProgramRepository) buildDoc(ctx context.Context, p *entity.Program) (*programDoc, error) {
	if p.Client == nil || p.Client.ID == "" {
		return nil, fmt.Errorf("%w: program %q has no client", repository.ErrMissingReference, p.CampaignTitle)
	}
	client, err := r.snapshotClient(ctx, p.Client.ID)
	if err != nil {
		return nil, err
	}

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	doc := &programDoc{
		CampaignTitle:   p.CampaignTitle,
		Description:     p.Description,
		CreatedAt:       createdAt,
		Client:          client,
		AdvertisingList: []lineItemDoc{},
	}
	for _, item := range p.Advertisings {
		itemDoc, err := r.snapshotAdvertising(ctx, item.Advertising.ID)
		if err != nil {
			return nil, err
		}
		doc.AdvertisingList = append(doc.AdvertisingList, lineItemDoc{Advertising: itemDoc, Quantity: item.Quantity})
	}
	return doc, nil
}

func (r *ProgramRepository) snapshotClient(ctx context.Context, id string) (*clientDoc, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc clientDoc
	err = r.store.clients().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: client %s", repository.ErrMissingReference, id)
	}
	if err != nil {
		return nil, storageErr("snapshot client", err)
	}
	return &doc, nil
}

func (r *ProgramRepository) snapshotAdvertising(ctx context.Context, id string) (*advertisingDoc, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc advertisingDoc
	err = r.store.advertisings().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: advertising %s", repository.ErrMissingReference, id)
	}
	if err != nil {
		return nil, storageErr("snapshot advertising", err)
	}
	return &doc, nil
}

// mergeLineItem replaces the line item for the same advertising or appends a
// new one.
func mergeLineItem(list []lineItemDoc, item lineItemDoc) []lineItemDoc {
	for i, existing := range list {
		if existing.Advertising != nil && existing.Advertising.ID == item.Advertising.ID {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}
