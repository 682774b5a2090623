// Package store abstracts the backend document store: flat collections
// of documents queried with equality/array-contains predicates, atomic
// at single-document granularity, with realtime change subscriptions.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Collection names.
const (
	Users       = "users"
	Locations   = "locations"
	Presence    = "presence"
	Connections = "connections"
	ChatRooms   = "chats"
	Messages    = "messages"
	Favorites   = "favorites"
	PushSubs    = "push_subscriptions"
)

// ErrNotFound is returned by Get, Update and Delete for a missing id.
var ErrNotFound = errors.New("store: document not found")

// Document is a decoded store document. The "_id" field holds the
// document id as a string.
type Document = map[string]interface{}

// Op selects how a predicate compares a field.
type Op int

const (
	// OpEqual matches documents whose field equals the value.
	OpEqual Op = iota
	// OpArrayContains matches documents whose array field contains the value.
	OpArrayContains
)

// Predicate is one query condition. All predicates of a query must match.
type Predicate struct {
	Field string
	Op    Op
	Value interface{}
}

// Eq builds an equality predicate.
func Eq(field string, value interface{}) Predicate {
	return Predicate{Field: field, Op: OpEqual, Value: value}
}

// Contains builds an array-contains predicate.
func Contains(field string, value interface{}) Predicate {
	return Predicate{Field: field, Op: OpArrayContains, Value: value}
}

// ChangeKind tags a subscription delta.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeUpdated
	ChangeDeleted
)

// Change is one subscription delta. Doc is nil for deletes.
type Change struct {
	Kind ChangeKind
	ID   string
	Doc  Document
}

// Store is the persistence/notification collaborator. Every write is
// atomic at single-document granularity only; there are no joins and
// no multi-document transactions.
type Store interface {
	// Query returns all documents of collection matching every predicate.
	Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error)
	// Get returns one document by id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create inserts doc and returns its id. A preset "_id" field is honored.
	Create(ctx context.Context, collection string, doc Document) (string, error)
	// Update applies a partial update to one document, or ErrNotFound.
	Update(ctx context.Context, collection, id string, partial Document) error
	// UpdateWhere applies a partial update only if the document still
	// matches every predicate, reporting whether it did. This is the
	// single-document compare-and-set the connection lifecycle relies on.
	UpdateWhere(ctx context.Context, collection, id string, preds []Predicate, partial Document) (bool, error)
	// Delete removes one document, or ErrNotFound.
	Delete(ctx context.Context, collection, id string) error
	// Subscribe pushes matching-document deltas to fn until the
	// returned stop function is called or ctx is canceled. Deltas are
	// ordered per document; no cross-document ordering is guaranteed.
	Subscribe(ctx context.Context, collection string, preds []Predicate, fn func(Change)) (func(), error)
	// ServerTimestamp returns an opaque sentinel resolved to the
	// store's clock at write time. Use it for createdAt/lastSeen fields.
	ServerTimestamp() interface{}
}

// timestampSentinel is the value ServerTimestamp hands out; both
// implementations replace it with the current unix time on write.
type timestampSentinel struct{}

func resolveTimestamps(doc Document, now func() int64) {
	for k, v := range doc {
		if _, ok := v.(timestampSentinel); ok {
			doc[k] = now()
		}
	}
}

// Encode converts a bson-tagged struct into a Document.
func Encode(v interface{}) (Document, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Decode converts a Document into a bson-tagged struct.
func Decode(doc Document, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

// DecodeAll decodes a query result into a slice of T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
