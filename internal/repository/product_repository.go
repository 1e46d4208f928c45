package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartz/cartz-backend/internal/models"
)

// ListProductsParams filters and paginates product listings.
type ListProductsParams struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

// ProductRepository defines catalog data access. DecrementStock is the
// only stock-reducing path and is conditional on availability, so two
// concurrent orders can never both succeed past the last unit.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, params ListProductsParams) ([]models.Product, int64, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id string, updates bson.M) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) error
	RestoreStock(ctx context.Context, id string, quantity int) error
}

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection("products")}
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *MongoProductRepository) List(ctx context.Context, params ListProductsParams) ([]models.Product, int64, error) {
	filter := bson.M{"is_active": true}
	if params.Category != "" {
		filter["category"] = params.Category
	}
	if params.Search != "" {
		filter["name"] = bson.M{"$regex": primitive.Regex{Pattern: params.Search, Options: "i"}}
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((params.Page - 1) * params.Limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(params.Limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, p)
	return err
}

func (r *MongoProductRepository) Update(ctx context.Context, id string, updates bson.M) error {
	updates["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock atomically moves quantity units from stock to
// sold_count, conditional on stock >= quantity. A conditional-match
// failure is reported as ErrInsufficientStock when the product exists
// and ErrNotFound when it does not.
func (r *MongoProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity, "sold_count": quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}

	res := r.collection.FindOneAndUpdate(ctx, filter, update)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Distinguish a missing product from a short one.
			count, cerr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
			if cerr == nil && count == 0 {
				return ErrNotFound
			}
			return ErrInsufficientStock
		}
		return err
	}
	return nil
}

// RestoreStock is the exact inverse of DecrementStock, applied
// unconditionally: stock += quantity, sold_count -= quantity.
func (r *MongoProductRepository) RestoreStock(ctx context.Context, id string, quantity int) error {
	update := bson.M{
		"$inc": bson.M{"stock": quantity, "sold_count": -quantity},
		"$set": bson.M{"updated_at": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
