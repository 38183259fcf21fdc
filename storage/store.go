package storage

import (
	"context"
	"errors"
)

// Sentinel errors shared by every Store implementation. Callers compare with
// errors.Is and translate to HTTP outcomes at the boundary.
var (
	// ErrNotFound means the requested document does not exist.
	ErrNotFound = errors.New("storage: document not found")
	// ErrEmailExists means the identity provider already has a user with the email.
	ErrEmailExists = errors.New("storage: email already in use")
)

// Filter is a single equality/range/array predicate in a query,
// mirroring the operators Firestore supports ("==", "in", "array-contains", ...).
type Filter struct {
	Path  string
	Op    string
	Value interface{}
}

// Order sorts query results on a single field.
type Order struct {
	Path string
	Desc bool
}

// Update patches one field of a document. Value may be a plain value or one of
// the ArrayUnion/ArrayRemove sentinels below.
type Update struct {
	Path  string
	Value interface{}
}

// Batch write kinds.
const (
	BatchUpdate = "update"
	BatchDelete = "delete"
)

// BatchWrite names one document mutation inside a batch. The batch is atomic
// only within itself, never across the calls around it.
type BatchWrite struct {
	Kind       string
	Collection string
	ID         string
	Updates    []Update
}

// ArrayUnionValue marks an Update value as an array append that skips
// elements already present. Exported so fakes can interpret it.
type ArrayUnionValue struct{ Elems []interface{} }

// ArrayRemoveValue marks an Update value as an array element removal.
type ArrayRemoveValue struct{ Elems []interface{} }

// ArrayUnion appends the elements to an array field, skipping ones already present.
func ArrayUnion(elems ...interface{}) interface{} { return ArrayUnionValue{Elems: elems} }

// ArrayRemove deletes every occurrence of the elements from an array field.
func ArrayRemove(elems ...interface{}) interface{} { return ArrayRemoveValue{Elems: elems} }

// Doc is one query result. DataTo decodes the document into dst the same way
// regardless of the backing implementation.
type Doc struct {
	ID     string
	dataTo func(dst interface{}) error
}

// NewDoc builds a Doc around a decode function. Exposed so test fakes can
// produce query results.
func NewDoc(id string, dataTo func(dst interface{}) error) Doc {
	return Doc{ID: id, dataTo: dataTo}
}

// DataTo decodes the document fields into dst, which must be a struct pointer.
func (d Doc) DataTo(dst interface{}) error {
	return d.dataTo(dst)
}

// Store is the narrow document-store surface handlers depend on. Handlers never
// touch a concrete client, so tests can substitute an in-memory fake.
type Store interface {
	// Get decodes the document id in collection into dst, or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, dst interface{}) error
	// Query runs the filters with an optional order and limit (0 means no limit).
	Query(ctx context.Context, collection string, filters []Filter, orderBy *Order, limit int) ([]Doc, error)
	// Add creates a document with a generated id and returns that id.
	Add(ctx context.Context, collection string, data interface{}) (string, error)
	// Set creates or replaces the document id with data.
	Set(ctx context.Context, collection, id string, data interface{}) error
	// Update patches fields of an existing document; ErrNotFound if it does not exist.
	Update(ctx context.Context, collection, id string, updates []Update) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Batch applies every write atomically within this one call. An empty
	// batch is a no-op, never an error.
	Batch(ctx context.Context, writes []BatchWrite) error
}
