package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cartz/cartz-backend/internal/models"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}

type MongoCategoryRepository struct {
	collection *mongo.Collection
}

func NewMongoCategoryRepository(db *mongo.Database) *MongoCategoryRepository {
	return &MongoCategoryRepository{collection: db.Collection("categories")}
}

func (r *MongoCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *MongoCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	_, err := r.collection.InsertOne(ctx, category)
	return err
}
