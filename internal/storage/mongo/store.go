// Package mongo stores users in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

const (
	collectionName    = "users"
	emailIndexName    = "email_unique"
	usernameIndexName = "username_unique"
)

type userDocument struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Username        string             `bson:"username"`
	Email           string             `bson:"email"`
	Role            string             `bson:"role"`
	PasswordHash    string             `bson:"password_hash"`
	ResetCode       string             `bson:"reset_code,omitempty"`
	ResetCodeExpiry *time.Time         `bson:"reset_code_expiry,omitempty"`
	CreatedAt       time.Time          `bson:"created_at"`
}

// Store provides MongoDB-backed persistence for users.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewUserStore connects, pings and ensures unique indexes exist.
func NewUserStore(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{client: client, users: client.Database(database).Collection(collectionName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndexName)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(usernameIndexName)},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a user document.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	doc := userDocument{
		Username:     user.Username,
		Email:        user.Email,
		Role:         string(user.Role),
		PasswordHash: user.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, &storage.ConflictError{Field: duplicateField(err)}
		}
		return models.User{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}
	return doc.toModel(), nil
}

// FindByID fetches a user by hex object id.
func (s *Store) FindByID(ctx context.Context, id string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, storage.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail fetches a user by normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return doc.toModel(), nil
}

// SetResetCode stores a pending reset code, replacing any previous one.
func (s *Store) SetResetCode(ctx context.Context, userID, code string, expiry time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrNotFound
	}
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"reset_code": code, "reset_code_expiry": expiry}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ConsumeResetCode swaps the password hash and unsets the reset pair in one conditional update.
func (s *Store) ConsumeResetCode(ctx context.Context, userID, code string, now time.Time, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrResetCodeMismatch
	}
	filter := bson.M{
		"_id":               oid,
		"reset_code":        code,
		"reset_code_expiry": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash},
		"$unset": bson.M{"reset_code": "", "reset_code_expiry": ""},
	}
	res, err := s.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return storage.ErrResetCodeMismatch
	}
	return nil
}

// ClearResetCode drops the pending pair if it still holds code.
func (s *Store) ClearResetCode(ctx context.Context, userID, code string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return storage.ErrNotFound
	}
	_, err = s.users.UpdateOne(ctx,
		bson.M{"_id": oid, "reset_code": code},
		bson.M{"$unset": bson.M{"reset_code": "", "reset_code_expiry": ""}})
	return err
}

func duplicateField(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, emailIndexName):
		return "email"
	case strings.Contains(msg, usernameIndexName):
		return "username"
	default:
		return "account"
	}
}

func (d userDocument) toModel() models.User {
	return models.User{
		ID:              d.ID.Hex(),
		Username:        d.Username,
		Email:           d.Email,
		Role:            models.Role(d.Role),
		PasswordHash:    d.PasswordHash,
		ResetCode:       d.ResetCode,
		ResetCodeExpiry: d.ResetCodeExpiry,
		CreatedAt:       d.CreatedAt,
	}
}
