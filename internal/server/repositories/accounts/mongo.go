package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding accounts.
const CollectionName = "accounts"

type mongoAccount struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"passwordHash,omitempty"`
	Role         string             `bson:"role"`
	Mobile       string             `bson:"mobile,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *mongoAccount) toModel() *models.Account {
	return &models.Account{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.Role(d.Role),
		Mobile:       d.Mobile,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoRepository implements Repository over a single collection.
type MongoRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll, now: time.Now}
}

// EnsureIndexes creates the unique indexes backing email and mobile
// uniqueness. Mobile is omitted from documents when empty, so the partial
// index only covers accounts that carry one.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailConstraint).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "mobile", Value: 1}},
			Options: options.Index().SetName(mobileConstraint).SetUnique(true).
				SetPartialFilterExpression(bson.M{"mobile": bson.M{"$exists": true}}),
		},
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := mongoAccount{
		ID:           primitive.NewObjectID(),
		Name:         account.Name,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         string(account.Role),
		Mobile:       account.Mobile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKey(err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	account.ID = doc.ID.Hex()
	account.CreatedAt = now
	account.UpdatedAt = now
	return account, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) GetByMobile(ctx context.Context, mobile string) (*models.Account, error) {
	if mobile == "" {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.M{"mobile": mobile})
}

func (r *MongoRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	return r.updateOne(ctx, id, bson.M{"passwordHash": passwordHash})
}

func (r *MongoRepository) UpdateRole(ctx context.Context, id string, role models.Role, passwordHash []byte) error {
	return r.updateOne(ctx, id, bson.M{"role": string(role), "passwordHash": passwordHash})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) updateOne(ctx context.Context, id string, set bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	set["updatedAt"] = r.now().UTC().Truncate(time.Millisecond)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// duplicateKey names the violated index; the server reports it only in the message.
func duplicateKey(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, emailConstraint):
		return common.ErrEmailTaken
	case strings.Contains(msg, mobileConstraint):
		return common.ErrMobileTaken
	default:
		return common.ErrDuplicateIdentity
	}
}
