package storage

import (
	"context"
	"errors"
	"fmt"

	"coffee-menu/internal/domain"
	"coffee-menu/internal/service"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type menuDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Image       string             `bson:"image"`
}

func (d menuDocument) toDomain() domain.MenuItem {
	return domain.MenuItem{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Image:       d.Image,
	}
}

// MongoRepository keeps menu items as documents in a single collection.
type MongoRepository struct {
	Collection *mongo.Collection
	log        logrus.FieldLogger
}

func NewMongoRepository(collection *mongo.Collection, log logrus.FieldLogger) *MongoRepository {
	return &MongoRepository{
		Collection: collection,
		log:        log.WithField("component", "mongo_repository"),
	}
}

func (r *MongoRepository) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	cursor, err := r.Collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []menuDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.toDomain())
	}
	return items, nil
}

func (r *MongoRepository) GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc menuDocument
	err = r.Collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	item := doc.toDomain()
	return &item, nil
}

func (r *MongoRepository) CreateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	res, err := r.Collection.InsertOne(ctx, menuDocument{
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Image:       item.Image,
	})
	if err != nil {
		return err
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	item.ID = oid.Hex()

	r.log.WithField("item_id", item.ID).Info("Menu item added")
	return nil
}

// UpdateMenuItem sets all four fields of the matching document and returns
// the number of documents matched.
func (r *MongoRepository) UpdateMenuItem(ctx context.Context, item *domain.MenuItem) (int64, error) {
	oid, err := objectID(item.ID)
	if err != nil {
		return 0, err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: item.Name},
		{Key: "description", Value: item.Description},
		{Key: "price", Value: item.Price},
		{Key: "image", Value: item.Image},
	}}}
	res, err := r.Collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return 0, err
	}

	r.log.WithField("item_id", item.ID).Info("Menu item updated")
	return res.MatchedCount, nil
}

func (r *MongoRepository) DeleteMenuItem(ctx context.Context, id string) (int64, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}

	res, err := r.Collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 1 {
		r.log.WithField("item_id", id).Info("Delete successful")
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.Collection.Database().Client().Ping(ctx, readpref.Primary())
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %v", domain.ErrInvalidID, err)
	}
	return oid, nil
}

var _ service.MenuRepository = (*MongoRepository)(nil)
