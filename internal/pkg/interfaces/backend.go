package interfaces

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Backend performs the bulk calls the engine drives. Implementations must
// not assume transactionality across the items of one call: a failed call
// may have written some of its items.
type Backend interface {

	// Insert writes a batch of documents to the collection.
	Insert(ctx context.Context, collection string, items []bson.D) error

	// Update applies a partial patch to the single row addressed by key.
	Update(ctx context.Context, collection string, key interface{}, patch bson.D) error

	// Delete removes the rows addressed by the given keys.
	Delete(ctx context.Context, collection string, keys []interface{}) error

	// Upsert writes a batch of documents, resolving conflicts on conflictKey.
	Upsert(ctx context.Context, collection string, items []bson.D, conflictKey string) error

	// Probe is an inexpensive connectivity check.
	Probe(ctx context.Context) error
}
