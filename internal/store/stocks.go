package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/models"
)

// ErrDuplicateSymbol is returned when an insert or update violates the
// unique symbol index.
var ErrDuplicateSymbol = errors.New("store: symbol already exists")

// StockStore handles stock document CRUD in MongoDB.
type StockStore struct {
	col *mongo.Collection
}

func NewStockStore(db *mongo.Database) *StockStore {
	return &StockStore{col: db.Collection("stocks")}
}

func (s *StockStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "symbol", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "sector", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("stock indexes: %w", err)
	}
	return nil
}

func (s *StockStore) Insert(ctx context.Context, st *models.Stock) (string, error) {
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	res, err := s.col.InsertOne(ctx, st)
	if mongo.IsDuplicateKeyError(err) {
		return "", ErrDuplicateSymbol
	}
	if err != nil {
		return "", fmt.Errorf("insert stock: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	st.ID = oid
	return oid.Hex(), nil
}

func (s *StockStore) GetByID(ctx context.Context, id string) (*models.Stock, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var st models.Stock
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (s *StockStore) List(ctx context.Context, skip, limit int64) ([]models.Stock, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stocks := []models.Stock{}
	if err := cur.All(ctx, &stocks); err != nil {
		return nil, err
	}
	return stocks, nil
}

func (s *StockStore) Replace(ctx context.Context, st *models.Stock) error {
	st.UpdatedAt = time.Now().UTC()
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": st.ID}, st)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateSymbol
	}
	if err != nil {
		return fmt.Errorf("replace stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *StockStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
