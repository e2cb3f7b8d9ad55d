package itineraries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/common"
	"github.com/dmitrijs2005/chanakya/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "itineraries"

// itineraryDocument mirrors the collection layout. ItineraryData is decoded
// into a generic value and re-encoded as relaxed extended JSON on the way out.
type itineraryDocument struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty"`
	UserID          *primitive.ObjectID `bson:"userId,omitempty"`
	UserEmail       string              `bson:"userEmail"`
	UserName        string              `bson:"userName,omitempty"`
	Destination     string              `bson:"destination"`
	Dates           string              `bson:"dates,omitempty"`
	Travelers       string              `bson:"travelers,omitempty"`
	FoodPreferences string              `bson:"foodPreferences,omitempty"`
	Interests       string              `bson:"interests,omitempty"`
	Budget          string              `bson:"budget,omitempty"`
	Pace            string              `bson:"pace,omitempty"`
	ItineraryData   any                 `bson:"itineraryData"`
	CreatedAt       time.Time           `bson:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt"`
}

func (d *itineraryDocument) toModel() (*models.Itinerary, error) {
	it := &models.Itinerary{
		ID:        d.ID.Hex(),
		UserEmail: d.UserEmail,
		UserName:  d.UserName,
		Trip: models.TripParams{
			Destination:     d.Destination,
			Dates:           d.Dates,
			Travelers:       d.Travelers,
			FoodPreferences: d.FoodPreferences,
			Interests:       d.Interests,
			Budget:          d.Budget,
			Pace:            d.Pace,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.UserID != nil {
		it.UserID = d.UserID.Hex()
	}

	if d.ItineraryData != nil {
		data, err := bson.MarshalExtJSON(d.ItineraryData, false, false)
		if err != nil {
			return nil, fmt.Errorf("itinerary payload: %w", err)
		}
		it.Data = json.RawMessage(data)
	}
	return it, nil
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, it *models.Itinerary) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(it.Data, &payload); err != nil {
		return "", fmt.Errorf("itinerary payload: %w", err)
	}

	doc := itineraryDocument{
		UserEmail:       it.UserEmail,
		UserName:        it.UserName,
		Destination:     it.Trip.Destination,
		Dates:           it.Trip.Dates,
		Travelers:       it.Trip.Travelers,
		FoodPreferences: it.Trip.FoodPreferences,
		Interests:       it.Trip.Interests,
		Budget:          it.Trip.Budget,
		Pace:            it.Trip.Pace,
		ItineraryData:   payload,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(it.UserID); err == nil {
		doc.UserID = &oid
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id %v", res.InsertedID)
	}
	it.ID = oid.Hex()
	return it.ID, nil
}

func (r *MongoRepository) ListSummaries(ctx context.Context, email string) ([]models.Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{
			"destination":                      1,
			"dates":                            1,
			"travelers":                        1,
			"createdAt":                        1,
			"itineraryData.destination_name":   1,
			"itineraryData.personalized_title": 1,
			"itineraryData.hero_image_url":     1,
		})

	cur, err := r.coll.Find(ctx, bson.M{"userEmail": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to select itineraries: %w", err)
	}
	defer cur.Close(ctx)

	result := make([]models.Summary, 0)
	for cur.Next(ctx) {
		var doc itineraryDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		it, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, it.Summary())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *MongoRepository) Get(ctx context.Context, email, id string) (*models.Itinerary, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrInvalidID
	}

	var doc itineraryDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": oid, "userEmail": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel()
}

func (r *MongoRepository) Delete(ctx context.Context, email, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, common.ErrInvalidID
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid, "userEmail": email})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.DeletedCount, nil
}
