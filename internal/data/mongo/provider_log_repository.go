// Package mongo stores the append-only log of BBPS provider calls. The
// log is operational evidence for disputes and reconciliation and never
// feeds back into money movement.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// ProviderCallCollectionName is the name of the provider call log collection
	ProviderCallCollectionName = "provider_calls"
)

// CallRecord is one snapshot of a BBPS provider request/response pair.
// Request and Response hold redacted payloads.
type CallRecord struct {
	ID            uuid.UUID      `bson:"_id"`
	TransactionID *uuid.UUID     `bson:"transaction_id,omitempty"`
	Operation     string         `bson:"operation"`
	BillerID      string         `bson:"biller_id,omitempty"`
	Request       map[string]any `bson:"request,omitempty"`
	Response      map[string]any `bson:"response,omitempty"`
	Success       bool           `bson:"success"`
	ErrorMessage  string         `bson:"error_message,omitempty"`
	Duration      time.Duration  `bson:"duration_ns"`
	CreatedAt     time.Time      `bson:"created_at"`
}

// ProviderLogRepository persists provider call records to MongoDB
type ProviderLogRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewProviderLogRepository creates a new MongoDB provider call log repository
func NewProviderLogRepository(logger *slog.Logger, db *mongo.Database) *ProviderLogRepository {
	return &ProviderLogRepository{
		db:     db,
		logger: logger,
	}
}

// Record appends one provider call record. The log is write-once; records
// are never updated.
func (r *ProviderLogRepository) Record(ctx context.Context, record *CallRecord) error {
	collection := r.db.Collection(ProviderCallCollectionName)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to record provider call",
			"operation", record.Operation,
			"error", err)
		return fmt.Errorf("failed to record provider call: %w", err)
	}

	return nil
}

// ListByTransactionID retrieves all provider calls made for a transaction,
// oldest first.
func (r *ProviderLogRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*CallRecord, error) {
	collection := r.db.Collection(ProviderCallCollectionName)

	filter := bson.M{"transaction_id": transactionID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list provider calls",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to list provider calls: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*CallRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode provider call records: %w", err)
	}

	return records, nil
}
