package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepositoryManager vends a MongoDB-backed accounts repository.
// Transactions need a replica set, so WithinTx runs without one.
type MongoRepositoryManager struct {
	client *mongo.Client
	repo   *accounts.MongoRepository
}

// NewMongoRepositoryManager connects to uri and binds the accounts collection
// of database dbName.
func NewMongoRepositoryManager(ctx context.Context, uri, dbName string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}
	return newMongoRepositoryManager(client, client.Database(dbName).Collection(accounts.CollectionName)), nil
}

func newMongoRepositoryManager(client *mongo.Client, coll *mongo.Collection) *MongoRepositoryManager {
	return &MongoRepositoryManager{client: client, repo: accounts.NewMongoRepository(coll)}
}

func (m *MongoRepositoryManager) Accounts() accounts.Repository {
	return m.repo
}

func (m *MongoRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	return fn(ctx, m.repo)
}

// RunMigrations creates the unique indexes.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	return m.repo.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
