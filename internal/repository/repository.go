package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

const (
	defaultRegion     = "emea"
	defaultCollection = "reviews"

	// envRegion overrides the region when the caller does not pass one.
	envRegion = "DB_REGION"
)

// Config controls which store a Repository binds to and how it manages the
// underlying connection.
type Config struct {
	// Region selects the store endpoint. Falls back to the DB_REGION
	// environment variable, then to "emea".
	Region string

	// Collection names the backing collection. Defaults to "reviews".
	Collection string

	// KeepAlive shares the connection through the cache and keeps it open
	// across Close. When false the repository owns an exclusive connection
	// and Close tears it down.
	KeepAlive bool
}

// Repository exposes document CRUD over a backing store collection. It is
// safe for concurrent use; the connection is established lazily on first use
// and reused afterwards.
type Repository struct {
	driver Driver
	cache  *ConnCache
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	client Client
	coll   Collection
}

// New builds a Repository over the given driver. The cache may be shared
// across repositories; pass the same instance to amortize connections.
func New(driver Driver, cache *ConnCache, cfg Config, logger *slog.Logger) *Repository {
	if cfg.Region == "" {
		if region := os.Getenv(envRegion); region != "" {
			cfg.Region = region
		} else {
			cfg.Region = defaultRegion
		}
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	return &Repository{
		driver: driver,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Init establishes the store connection if it is not already up. It is
// idempotent; repeated calls after a successful connect are no-ops.
func (r *Repository) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initLocked(ctx)
}

func (r *Repository) initLocked(ctx context.Context) error {
	if r.coll != nil {
		return nil
	}

	var (
		client Client
		coll   Collection
		err    error
	)
	if r.cfg.KeepAlive {
		client, coll, err = r.cache.GetOrConnect(ctx, r.driver, r.cfg.Region, r.cfg.Collection)
	} else {
		client, coll, err = connect(ctx, r.driver, r.cfg.Region, r.cfg.Collection)
	}
	if err != nil {
		return err
	}

	r.client = client
	r.coll = coll
	r.logger.DebugContext(ctx, "repository connected",
		slog.String("region", r.cfg.Region),
		slog.String("collection", r.cfg.Collection),
		slog.Bool("keep_alive", r.cfg.KeepAlive),
	)
	return nil
}

// collection returns the connected collection handle, connecting on demand.
func (r *Repository) collection(ctx context.Context) (Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.initLocked(ctx); err != nil {
		return nil, err
	}
	return r.coll, nil
}

// Get fetches the document stored under key. It returns a nil map, not an
// error, when the key does not exist.
func (r *Repository) Get(ctx context.Context, key string) (map[string]any, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := coll.FindOne(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return Normalize(doc), nil
}

// Put stores a value under key, inserting or overwriting fields as needed,
// and returns the key. Values that are not already documents are decoded
// leniently: textual values are parsed as JSON, and text that is not valid
// JSON is wrapped as {"value": text}. The key is stamped into the document's
// id field only when the document does not already carry one; a caller's map
// is copied before stamping, never mutated.
func (r *Repository) Put(ctx context.Context, key string, value any) (string, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return "", err
	}

	doc := decodeValue(value)
	switch id := doc["id"].(type) {
	case nil:
		doc["id"] = key
	case string:
		if id == "" {
			doc["id"] = key
		}
	}

	if err := coll.UpsertOne(ctx, key, doc); err != nil {
		return "", fmt.Errorf("put %q: %w", key, err)
	}
	return key, nil
}

// Delete removes the document stored under key. Deleting a key that does not
// exist is not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	coll, err := r.collection(ctx)
	if err != nil {
		return err
	}
	if err := coll.DeleteOne(ctx, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Find returns a lazy cursor over documents matching the filter. Sort, skip,
// and limit are configured on the cursor before iteration.
func (r *Repository) Find(ctx context.Context, filter map[string]any) (Cursor, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	return cursor, nil
}

// Count returns the total number of documents matching the filter.
func (r *Repository) Count(ctx context.Context, filter map[string]any) (int64, error) {
	coll, err := r.collection(ctx)
	if err != nil {
		return 0, err
	}
	n, err := coll.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Ping connects if needed and verifies the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.initLocked(ctx); err != nil {
		return err
	}
	return r.client.Ping(ctx)
}

// Close releases the repository's connection. Keep-alive repositories leave
// the shared connection open for other instances; exclusive repositories
// close their client and drop any cache entries referencing it.
func (r *Repository) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil || r.cfg.KeepAlive {
		return nil
	}

	err := r.client.Close(ctx)
	r.cache.EvictClient(r.client)
	r.client = nil
	r.coll = nil
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// Normalize strips storage-internal fields from a document. A nil document
// stays nil.
func Normalize(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}

// decodeValue coerces an arbitrary value into a storable document. Maps are
// shallow-copied so Put can stamp the id without touching the caller's data.
func decodeValue(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		doc := make(map[string]any, len(v)+1)
		for k, val := range v {
			doc[k] = val
		}
		return doc
	case string:
		return decodeText(v)
	case []byte:
		return decodeText(string(v))
	default:
		// Structs and other shapes round-trip through JSON.
		data, err := json.Marshal(v)
		if err != nil {
			return map[string]any{"value": fmt.Sprint(v)}
		}
		return decodeText(string(data))
	}
}

func decodeText(text string) map[string]any {
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil || doc == nil {
		return map[string]any{"value": text}
	}
	return doc
}
