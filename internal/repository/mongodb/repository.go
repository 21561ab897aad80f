package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/krishichain/internal/domain/models"
)

const (
	collName   = "ledger"
	ledgerKey  = "krishichain-products"
	summaryCol = "ledger_summaries"
)

type ledgerDocument struct {
	Key     string                 `bson:"_id"`
	Records []models.ProduceRecord `bson:"records"`
}

// MongoDBRepository keeps the ledger collection as one MongoDB document.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository connects and pings the server.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

// Load fetches the ledger document. A missing document is an empty ledger.
func (r *MongoDBRepository) Load(ctx context.Context) ([]models.ProduceRecord, error) {
	var doc ledgerDocument
	err := r.collection(collName).FindOne(ctx, bson.M{"_id": ledgerKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.ProduceRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger document: %w", err)
	}
	if doc.Records == nil {
		doc.Records = []models.ProduceRecord{}
	}
	return doc.Records, nil
}

// Save replaces the ledger document in one write.
func (r *MongoDBRepository) Save(ctx context.Context, records []models.ProduceRecord) error {
	doc := ledgerDocument{Key: ledgerKey, Records: records}
	_, err := r.collection(collName).ReplaceOne(ctx, bson.M{"_id": ledgerKey}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save ledger document: %w", err)
	}
	return nil
}

// SaveSummary archives an exported ledger summary.
func (r *MongoDBRepository) SaveSummary(ctx context.Context, summary models.LedgerSummary) error {
	if _, err := r.collection(summaryCol).InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("failed to insert ledger summary: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}
