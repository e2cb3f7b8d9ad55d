package users

import (
	"context"
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

const CollectionName = "users"

type userDocument struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Email                  string             `bson:"email"`
	Password               string             `bson:"password"`
	Name                   string             `bson:"name"`
	SubscriptionStatus     string             `bson:"subscriptionStatus"`
	HasPremiumSubscription bool               `bson:"hasPremiumSubscription"`
	ItinerariesCreated     int                `bson:"itinerariesCreated"`
	FreeItineraryUsed      bool               `bson:"freeItineraryUsed"`
	ChatMessagesUsed       int                `bson:"chatMessagesUsed"`
	CreatedAt              time.Time          `bson:"createdAt"`
	UpgradedAt             *time.Time         `bson:"upgradedAt,omitempty"`
	DowngradedAt           *time.Time         `bson:"downgradedAt,omitempty"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:                     d.ID.Hex(),
		Email:                  d.Email,
		PasswordHash:           d.Password,
		Name:                   d.Name,
		SubscriptionStatus:     d.SubscriptionStatus,
		HasPremiumSubscription: d.HasPremiumSubscription,
		ItinerariesCreated:     d.ItinerariesCreated,
		FreeItineraryUsed:      d.FreeItineraryUsed,
		ChatMessagesUsed:       d.ChatMessagesUsed,
		CreatedAt:              d.CreatedAt,
		UpgradedAt:             d.UpgradedAt,
		DowngradedAt:           d.DowngradedAt,
	}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	doc := userDocument{
		Email:              user.Email,
		Password:           user.PasswordHash,
		Name:               user.Name,
		SubscriptionStatus: user.SubscriptionStatus,
		CreatedAt:          user.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return user, nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) IncrementChatMessages(ctx context.Context, email string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"chatMessagesUsed": 1})

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$inc": bson.M{"chatMessagesUsed": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return doc.ChatMessagesUsed, nil
}

func (r *MongoRepository) RecordItinerary(ctx context.Context, email string, consumeFree bool) error {
	filter := bson.M{"email": email}
	update := bson.M{"$inc": bson.M{"itinerariesCreated": 1}}
	missing := common.ErrNotFound

	if consumeFree {
		filter["freeItineraryUsed"] = bson.M{"$ne": true}
		update["$set"] = bson.M{"freeItineraryUsed": true}
		missing = common.ErrQuotaExhausted
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return missing
	}
	return nil
}

func (r *MongoRepository) SetSubscription(ctx context.Context, email string, premium bool, at time.Time) (*models.User, error) {
	set := bson.M{
		"subscriptionStatus":     common.SubscriptionFree,
		"hasPremiumSubscription": false,
		"downgradedAt":           at,
	}
	if premium {
		set = bson.M{
			"subscriptionStatus":     common.SubscriptionPremium,
			"hasPremiumSubscription": true,
			"upgradedAt":             at,
		}
	}

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}
