package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DataManagerOptions configures a DataManager.
type DataManagerOptions struct {
	MaxCacheSize int
}

// DefaultDataManagerOptions returns the default options.
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{MaxCacheSize: 1000}
}

// DataManager gives cached access to one MongoDB collection. Single-document
// reads are cached by query. Writes update the cache and are queued on the
// Database while it is offline.
type DataManager[T any] struct {
	name  string
	db    *Database
	cache *lru.Cache[string, *T]
}

// NewDataManager creates a DataManager for a collection.
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	o := DefaultDataManagerOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxCacheSize <= 0 {
		o.MaxCacheSize = 1
	}
	cache, _ := lru.New[string, *T](o.MaxCacheSize)
	return &DataManager[T]{name: collectionName, db: db, cache: cache}
}

// cacheKey sorts the query keys so equal queries map to one entry.
func (dm *DataManager[T]) cacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}
	return fmt.Sprintf("%s:{%s}", dm.name, strings.Join(parts, ","))
}

func (dm *DataManager[T]) collection() *mongo.Collection {
	if !dm.db.Connected() {
		return nil
	}
	return dm.db.Collection(dm.name)
}

// Get returns one document, or nil when none matches.
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	key := dm.cacheKey(query)
	if v, ok := dm.cache.Get(key); ok {
		return v, nil
	}

	col := dm.collection()
	if col == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result T
	if err := col.FindOne(ctx, query).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Warn(fmt.Sprintf("Fallo al leer de la DB (%s): %v", dm.name, err), "DataManager")
		return nil, err
	}

	dm.cache.Add(key, &result)
	return &result, nil
}

// GetAll returns every matching document. It bypasses the cache.
func (dm *DataManager[T]) GetAll(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]*T, error) {
	col := dm.collection()
	if col == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := col.Find(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			logger.Warn(fmt.Sprintf("Documento inválido en '%s': %v", dm.name, err), "DataManager")
			continue
		}
		results = append(results, &doc)
	}
	return results, cursor.Err()
}

// Set upserts the document matching query. While offline the write is queued
// and the cache holds the value until it is replayed.
func (dm *DataManager[T]) Set(ctx context.Context, query bson.M, data *T) error {
	key := dm.cacheKey(query)

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando escritura para '%s'", dm.name), "DataManager")
		dm.db.AddToWriteQueue(QueuedOperation{CollectionName: dm.name, Query: query, Operation: "set", Data: data})
		dm.cache.Add(key, data)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := col.UpdateOne(ctx, query, bson.M{"$set": data}, options.Update().SetUpsert(true)); err != nil {
		dm.cache.Remove(key)
		return err
	}
	dm.cache.Add(key, data)
	return nil
}

// Delete removes the document matching query.
func (dm *DataManager[T]) Delete(ctx context.Context, query bson.M) error {
	dm.cache.Remove(dm.cacheKey(query))

	col := dm.collection()
	if col == nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando eliminación para '%s'", dm.name), "DataManager")
		dm.db.AddToWriteQueue(QueuedOperation{CollectionName: dm.name, Query: query, Operation: "delete"})
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := col.DeleteOne(ctx, query)
	return err
}

// ClearCache empties the cache.
func (dm *DataManager[T]) ClearCache() {
	dm.cache.Purge()
}

// CacheSize returns the number of cached documents.
func (dm *DataManager[T]) CacheSize() int {
	return dm.cache.Len()
}
