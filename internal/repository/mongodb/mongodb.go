// Package mongodb adapts the MongoDB Go driver to the repository driver
// contract.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/netz98/app-builder-product-reviews/internal/repository"
)

// Config maps regions to MongoDB connection strings.
type Config struct {
	// URIs holds per-region connection strings.
	URIs map[string]string

	// DefaultURI is used when a region has no entry in URIs.
	DefaultURI string

	// Database is the database name collections are opened in.
	Database string
}

// Driver implements repository.Driver over the MongoDB Go driver.
type Driver struct {
	cfg Config
}

// NewDriver builds a Driver from the given region/URI configuration.
func NewDriver(cfg Config) *Driver {
	return &Driver{cfg: cfg}
}

// Init resolves the connection string for the requested region. It performs
// no I/O; the connection is established by Store.Connect.
func (d *Driver) Init(_ context.Context, opts repository.Options) (repository.Store, error) {
	uri := d.cfg.URIs[opts.Region]
	if uri == "" {
		uri = d.cfg.DefaultURI
	}
	if uri == "" {
		return nil, fmt.Errorf("mongodb: no connection string for region %q", opts.Region)
	}
	return &store{uri: uri, database: d.cfg.Database}, nil
}

type store struct {
	uri      string
	database string
}

func (s *store) Connect(ctx context.Context) (repository.Client, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	return &client{cli: cli, database: s.database}, nil
}

type client struct {
	cli      *mongo.Client
	database string
}

func (c *client) Collection(_ context.Context, name string) (repository.Collection, error) {
	return &collection{coll: c.cli.Database(c.database).Collection(name)}, nil
}

func (c *client) Ping(ctx context.Context) error {
	return c.cli.Ping(ctx, readpref.Primary())
}

func (c *client) Close(ctx context.Context) error {
	return c.cli.Disconnect(ctx)
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) FindOne(ctx context.Context, key string) (map[string]any, error) {
	var doc map[string]any
	err := c.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *collection) UpsertOne(ctx context.Context, key string, doc map[string]any) error {
	_, err := c.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

func (c *collection) DeleteOne(ctx context.Context, key string) error {
	_, err := c.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (c *collection) Find(_ context.Context, filter map[string]any) (repository.Cursor, error) {
	return &cursor{
		coll:   c.coll,
		filter: filter,
		opts:   options.Find(),
	}, nil
}

func (c *collection) Count(ctx context.Context, filter map[string]any) (int64, error) {
	return c.coll.CountDocuments(ctx, bson.M(filter))
}

// cursor defers the Find call until first iteration so that Sort, Skip, and
// Limit configure the server-side query rather than trimming fetched results.
type cursor struct {
	coll   *mongo.Collection
	filter map[string]any
	opts   *options.FindOptions

	cur *mongo.Cursor
	err error
}

func (c *cursor) Sort(field string, direction int) repository.Cursor {
	c.opts.SetSort(bson.D{{Key: field, Value: direction}})
	return c
}

func (c *cursor) Skip(n int64) repository.Cursor {
	c.opts.SetSkip(n)
	return c
}

func (c *cursor) Limit(n int64) repository.Cursor {
	c.opts.SetLimit(n)
	return c
}

func (c *cursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if c.cur == nil {
		cur, err := c.coll.Find(ctx, bson.M(c.filter), c.opts)
		if err != nil {
			c.err = err
			return false
		}
		c.cur = cur
	}
	return c.cur.Next(ctx)
}

func (c *cursor) Decode(into *map[string]any) error {
	if c.cur == nil {
		return errors.New("mongodb: cursor not iterated")
	}
	return c.cur.Decode(into)
}

func (c *cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	if c.cur == nil {
		return nil
	}
	return c.cur.Err()
}

func (c *cursor) Close(ctx context.Context) error {
	if c.cur == nil {
		return nil
	}
	return c.cur.Close(ctx)
}
