package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/internal/api"
)

const usersCollection = "users"

// namespaceExists is the server error code returned when a collection
// creation races with another caller that already created it.
const namespaceExists = 48

// Ensure implementation satisfies the interface
var _ UserRepo = (*MongoUserRepo)(nil)

// UserRepo is the persistence contract for user documents. Not-found is
// modeled as a nil result, never as an error; every driver failure is
// surfaced as an api.StorageError carrying the cause.
type UserRepo interface {
	Insert(ctx context.Context, u api.User) (string, error)
	FindByID(ctx context.Context, id string) (*api.User, error)
	FindByUsername(ctx context.Context, username string) (*api.User, error)
	Replace(ctx context.Context, id string, u api.User) (*api.User, error)
	Delete(ctx context.Context, id string) (*api.User, error)
	EnsureCollection(ctx context.Context) error
}

// MongoUserRepo maps the User entity onto documents in a single MongoDB
// collection. The database handle is acquired once at construction and is
// safe for concurrent use; pool sizing is configured by the caller.
type MongoUserRepo struct {
	logger *slog.Logger
	db     *mongo.Database
}

// NewMongoUserRepo instantiates the MongoDB-backed user repository.
func NewMongoUserRepo(db *mongo.Database, logger *slog.Logger) *MongoUserRepo {
	return &MongoUserRepo{
		logger: logger,
		db:     db,
	}
}

// toDocument serializes all declared fields into the store's native
// representation. The password field is written in whatever form is currently
// set; hashing policy belongs to the service layer.
func toDocument(u api.User) bson.M {
	return bson.M{
		"username": u.Username,
		"email":    u.Email,
		"password": u.Password,
	}
}

// fromDocument parses a stored document into the entity shape. Required
// fields must be present and of string type; unknown extra fields are
// ignored so old readers tolerate new writers.
func fromDocument(doc bson.M) (*api.User, error) {
	u := &api.User{}

	if oid, ok := doc["_id"].(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}

	for _, field := range []struct {
		name string
		dst  *string
	}{
		{"username", &u.Username},
		{"email", &u.Email},
		{"password", &u.Password},
	} {
		raw, ok := doc[field.name]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", api.ErrDecode, field.name)
		}
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is not a string", api.ErrDecode, field.name)
		}
		*field.dst = s
	}

	return u, nil
}

// parseID validates identifier syntax before any store round-trip.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", api.ErrInvalidID, id)
	}
	return oid, nil
}

// observe records the duration of one store operation and counts failures.
func (r *MongoUserRepo) observe(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("op", op))
	m.StoreOpDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		m.StoreOpErrorsTotal.Add(ctx, 1, attrs)
	}
}

// EnsureCollection lazily creates the users collection. Safe under concurrent
// first access: losing the creation race is treated as success.
func (r *MongoUserRepo) EnsureCollection(ctx context.Context) error {
	names, err := r.db.ListCollectionNames(ctx, bson.M{"name": usersCollection})
	if err != nil {
		return api.NewStorageError("list collections", err)
	}
	if len(names) > 0 {
		return nil
	}

	if err := r.db.CreateCollection(ctx, usersCollection); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == namespaceExists {
			return nil
		}
		return api.NewStorageError("create collection", err)
	}

	r.logger.InfoContext(ctx, "Created users collection", slog.String("collection", usersCollection))
	return nil
}

// Insert persists a new user document and returns the store-assigned id.
// The insert is attempted exactly once; retrying a failed insert could
// duplicate accounts since username uniqueness is not enforced.
func (r *MongoUserRepo) Insert(ctx context.Context, u api.User) (id string, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "insert", start, err) }()

	res, err := r.db.Collection(usersCollection).InsertOne(ctx, toDocument(u))
	if err != nil {
		return "", api.NewStorageError("insert", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", api.NewStorageError("insert", fmt.Errorf("unexpected inserted id type %T", res.InsertedID))
	}
	return oid.Hex(), nil
}

// FindByID fetches a user by identifier. A nil result means not found.
func (r *MongoUserRepo) FindByID(ctx context.Context, id string) (u *api.User, err error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { r.observe(ctx, "find", start, err) }()

	var doc bson.M
	err = r.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, api.NewStorageError("find", err)
	}

	return fromDocument(doc)
}

// FindByUsername returns the first document matching the username. Uniqueness
// is not enforced at the store level, so the tie-break between duplicates is
// arbitrary.
func (r *MongoUserRepo) FindByUsername(ctx context.Context, username string) (u *api.User, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "find", start, err) }()

	var doc bson.M
	err = r.db.Collection(usersCollection).FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, api.NewStorageError("find", err)
	}

	return fromDocument(doc)
}

// Replace performs a full-document replace keyed by identifier and returns
// the previous document, or nil if nothing matched.
func (r *MongoUserRepo) Replace(ctx context.Context, id string, u api.User) (prev *api.User, err error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { r.observe(ctx, "replace", start, err) }()

	var doc bson.M
	err = r.db.Collection(usersCollection).FindOneAndReplace(ctx, bson.M{"_id": oid}, toDocument(u)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, api.NewStorageError("replace", err)
	}

	return fromDocument(doc)
}

// Delete removes the document keyed by identifier and returns it, or nil if
// nothing matched.
func (r *MongoUserRepo) Delete(ctx context.Context, id string) (removed *api.User, err error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { r.observe(ctx, "delete", start, err) }()

	var doc bson.M
	err = r.db.Collection(usersCollection).FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, api.NewStorageError("delete", err)
	}

	return fromDocument(doc)
}
