package batch

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Update addresses one row by key with a partial patch.
type Update struct {
	Key   interface{}
	Patch bson.D
}

// ItemError records one item that could not be written after its retries
// were exhausted.
type ItemError struct {
	// The original item payload: a document for insert and upsert, an
	// Update for update, a key for delete.
	Item interface{}
	// Position of the item in the input collection.
	Index int
	// The underlying failure. Items of a failed chunk share the same error.
	Err error
}

// Result is returned once every chunk of a call has been attempted.
// Successful + Failed always equals the number of items attempted, which is
// the full input size unless the call aborted on an exhausted chunk.
type Result struct {
	Successful int
	Failed     int
	// Errors is ordered by item index.
	Errors   []ItemError
	Duration time.Duration
}
