package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartz/cartz-backend/internal/models"
)

// ListOrdersParams paginates and optionally filters order listings.
type ListOrdersParams struct {
	Page   int
	Limit  int
	Status models.OrderStatus
}

// OrderRepository defines order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string, params ListOrdersParams) ([]models.Order, int64, error)
	FindAll(ctx context.Context, params ListOrdersParams) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error
}

type MongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{collection: db.Collection("orders")}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MongoOrderRepository) FindByUserID(ctx context.Context, userID string, params ListOrdersParams) ([]models.Order, int64, error) {
	filter := bson.M{"user_id": userID}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	return r.find(ctx, filter, params)
}

func (r *MongoOrderRepository) FindAll(ctx context.Context, params ListOrdersParams) ([]models.Order, int64, error) {
	filter := bson.M{}
	if params.Status != "" {
		filter["status"] = params.Status
	}
	return r.find(ctx, filter, params)
}

func (r *MongoOrderRepository) find(ctx context.Context, filter bson.M, params ListOrdersParams) ([]models.Order, int64, error) {
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

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
