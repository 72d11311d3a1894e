// Package repository provides CRUD primitives over a backing document store,
// amortizing connection setup across instances through a shared, injectable
// connection cache.
package repository

import "context"

// Options selects the store endpoint a Driver should connect to.
type Options struct {
	Region string
}

// Driver abstracts the document-store client library. Implementations live in
// subpackages (see mongodb); tests substitute fakes.
type Driver interface {
	// Init resolves the endpoint for the given options and returns an
	// unconnected store handle. It performs no I/O.
	Init(ctx context.Context, opts Options) (Store, error)
}

// Store is an endpoint-bound handle that can establish client connections.
type Store interface {
	Connect(ctx context.Context) (Client, error)
}

// Client is an established store connection.
type Client interface {
	// Collection opens the named collection on this connection.
	Collection(ctx context.Context, name string) (Collection, error)

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close tears down the connection. Safe to call once per client.
	Close(ctx context.Context) error
}

// Collection exposes the document primitives the repository is built on.
// Filters use store-native (Mongo-style) operator documents; documents are
// keyed by the storage-internal _id field.
type Collection interface {
	// FindOne returns the document with the given storage identifier, or a
	// nil map when no such document exists.
	FindOne(ctx context.Context, key string) (map[string]any, error)

	// UpsertOne merges the document's fields into the document with the
	// given storage identifier, inserting it when absent ($set semantics).
	UpsertOne(ctx context.Context, key string, doc map[string]any) error

	// DeleteOne removes the document with the given storage identifier.
	// Removing a non-existent key is not an error.
	DeleteOne(ctx context.Context, key string) error

	// Find returns a lazy cursor over documents matching the filter.
	Find(ctx context.Context, filter map[string]any) (Cursor, error)

	// Count returns the number of documents matching the filter,
	// independent of any cursor skip/limit.
	Count(ctx context.Context, filter map[string]any) (int64, error)
}

// Cursor is a lazily-iterated result set. Sort, Skip, and Limit configure the
// traversal and must be called before the first Next; the matched set is
// never materialized eagerly.
type Cursor interface {
	Sort(field string, direction int) Cursor
	Skip(n int64) Cursor
	Limit(n int64) Cursor

	Next(ctx context.Context) bool
	Decode(into *map[string]any) error
	Err() error
	Close(ctx context.Context) error
}
