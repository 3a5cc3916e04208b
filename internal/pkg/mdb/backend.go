package mdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/sebastienferry/mongo-batch/internal/pkg/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateKey marks bulk failures caused by unique index conflicts so
// callers can tell conflicts from transport errors.
var ErrDuplicateKey = errors.New("duplicate key")

// classifyBulkError wraps unique index violations with ErrDuplicateKey and
// passes every other failure through unchanged.
func classifyBulkError(err error) error {
	if err == nil {
		return nil
	}
	if IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

// MongoBackend implements the bulk operations the engine drives against a
// single MongoDB database.
type MongoBackend struct {
	Target   *MDB
	Database string
}

func NewMongoBackend(target *MDB, database string) *MongoBackend {
	return &MongoBackend{
		Target:   target,
		Database: database,
	}
}

func (b *MongoBackend) Insert(ctx context.Context, collection string, items []bson.D) error {

	if len(items) == 0 {
		log.Debug("no documents to insert")
		return nil
	}

	var models []mongo.WriteModel
	for _, item := range items {
		models = append(models, mongo.NewInsertOneModel().SetDocument(item))
	}

	// Bulk write the documents
	opts := options.BulkWrite().SetOrdered(false)
	_, err := b.Target.GetClient(ctx).Database(b.Database).Collection(collection).BulkWrite(ctx, models, opts)
	if err != nil {
		err = classifyBulkError(err)
		log.ErrorWithFields("bulk insert failed", log.Fields{
			"collection": collection,
			"count":      len(models),
			"error":      err,
		})
	}
	return err
}

func (b *MongoBackend) Update(ctx context.Context, collection string, key interface{}, patch bson.D) error {

	filter := bson.D{{Key: "_id", Value: key}}
	update := bson.D{{Key: "$set", Value: patch}}

	_, err := b.Target.GetClient(ctx).Database(b.Database).Collection(collection).UpdateOne(ctx, filter, update)
	return err
}

func (b *MongoBackend) Delete(ctx context.Context, collection string, keys []interface{}) error {

	if len(keys) == 0 {
		log.Debug("no documents to delete")
		return nil
	}

	var models []mongo.WriteModel
	for _, key := range keys {
		filter := bson.D{{Key: "_id", Value: key}}
		models = append(models, mongo.NewDeleteOneModel().SetFilter(filter))
	}

	// Bulk write the documents
	opts := options.BulkWrite().SetOrdered(false)
	_, err := b.Target.GetClient(ctx).Database(b.Database).Collection(collection).BulkWrite(ctx, models, opts)
	if err != nil {
		log.ErrorWithFields("bulk delete failed", log.Fields{
			"collection": collection,
			"count":      len(models),
			"error":      err,
		})
	}
	return err
}

func (b *MongoBackend) Upsert(ctx context.Context, collection string, items []bson.D, conflictKey string) error {

	if len(items) == 0 {
		log.Debug("no documents to upsert")
		return nil
	}

	var models []mongo.WriteModel
	for _, item := range items {

		filter := bson.D{{Key: conflictKey, Value: lookupField(item, conflictKey)}}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).SetUpsert(true).SetUpdate(bson.D{{Key: "$set", Value: item}}))
	}

	// Bulk write the documents
	opts := options.BulkWrite().SetOrdered(false)
	_, err := b.Target.GetClient(ctx).Database(b.Database).Collection(collection).BulkWrite(ctx, models, opts)
	if err != nil {
		err = classifyBulkError(err)
		log.ErrorWithFields("bulk upsert failed", log.Fields{
			"collection": collection,
			"count":      len(models),
			"error":      err,
		})
	}
	return err
}

// Probe checks connectivity with a server ping.
func (b *MongoBackend) Probe(ctx context.Context) error {
	return b.Target.GetClient(ctx).Ping(ctx, nil)
}

// lookupField returns the value of the named field in the document,
// or nil when the document does not carry it.
func lookupField(document bson.D, key string) interface{} {
	for _, elem := range document {
		if elem.Key == key {
			return elem.Value
		}
	}
	return nil
}
