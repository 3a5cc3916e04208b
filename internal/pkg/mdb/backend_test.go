package mdb

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsDuplicateKeyError(t *testing.T) {

	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{errors.New("connection reset"), false},
		{mongo.CommandError{Code: 11000}, true},
		{mongo.CommandError{Code: 11001}, true},
		{mongo.CommandError{Code: 12582}, true},
		{mongo.CommandError{Code: 16460, Message: "insert failed E11000 duplicate"}, true},
		{mongo.CommandError{Code: 16460, Message: "something else"}, false},
		{mongo.CommandError{Code: 50}, false},
		// The check unwraps wrapped server errors
		{fmt.Errorf("bulk write: %w", mongo.CommandError{Code: 11000}), true},
	}

	for _, test := range tests {
		if got := IsDuplicateKeyError(test.err); got != test.expected {
			t.Errorf("IsDuplicateKeyError(%v) = %v; want %v", test.err, got, test.expected)
		}
	}
}

func TestClassifyBulkError(t *testing.T) {

	if err := classifyBulkError(nil); err != nil {
		t.Errorf("classifyBulkError(nil) = %v; want nil", err)
	}

	// Transport errors pass through unchanged
	transport := errors.New("connection reset")
	if err := classifyBulkError(transport); err != transport {
		t.Errorf("classifyBulkError(transport) = %v; want the original error", err)
	}
	if errors.Is(classifyBulkError(transport), ErrDuplicateKey) {
		t.Error("transport error classified as duplicate key")
	}

	// Unique index violations are marked so callers can match on them
	dup := classifyBulkError(mongo.CommandError{Code: 11000, Message: "E11000"})
	if !errors.Is(dup, ErrDuplicateKey) {
		t.Errorf("classifyBulkError(11000) = %v; want ErrDuplicateKey", dup)
	}
}
