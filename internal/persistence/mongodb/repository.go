// Package mongodb stores users and exercises as MongoDB documents.
package mongodb

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/exercisetracker/internal/domain"
)

const (
	usersCollection     = "users"
	exercisesCollection = "exercises"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type exerciseDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"userId"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Date        time.Time          `bson:"date"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

// storedExercise is decoded loosely so documents written by other clients
// with odd field types still read back.
type storedExercise struct {
	ID          primitive.ObjectID `bson:"_id"`
	UserID      string             `bson:"userId"`
	Description any                `bson:"description"`
	Duration    any                `bson:"duration"`
	Date        any                `bson:"date"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

// Repository implements domain.Repository on a MongoDB database.
type Repository struct {
	users     *mongo.Collection
	exercises *mongo.Collection
}

// NewRepository constructs a Repository over the given database.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		users:     db.Collection(usersCollection),
		exercises: db.Collection(exercisesCollection),
	}
}

// EnsureIndexes creates the index backing log queries.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
	})
	return err
}

// CreateUser implements domain.Repository. The store assigns the ObjectID.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	doc := userDocument{Username: user.Username, CreatedAt: user.CreatedAt}
	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("unexpected inserted id type")
	}
	user.ID = oid.Hex()
	return nil
}

// ListUsers implements domain.Repository in natural order.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"username": 1, "createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]domain.User, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, toUser(doc))
	}
	return users, cursor.Err()
}

// GetUser implements domain.Repository. A malformed ObjectID is reported as absent.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	user := toUser(doc)
	return &user, nil
}

// CreateExercise implements domain.Repository.
func (r *Repository) CreateExercise(ctx context.Context, user domain.User, exercise *domain.Exercise) error {
	doc := exerciseDocument{
		UserID:      exercise.UserID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date,
		CreatedAt:   exercise.CreatedAt,
	}
	res, err := r.exercises.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		exercise.ID = oid.Hex()
	}
	return nil
}

// FindExercises implements domain.Repository in natural order.
func (r *Repository) FindExercises(ctx context.Context, userID string, filter domain.LogFilter) ([]domain.Exercise, error) {
	opts := options.Find()
	if filter.Limit != nil {
		opts.SetLimit(int64(*filter.Limit))
	}

	cursor, err := r.exercises.Find(ctx, exerciseFilter(userID, filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := make([]domain.Exercise, 0)
	for cursor.Next(ctx) {
		var doc storedExercise
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, toExercise(doc))
	}
	return results, cursor.Err()
}

func exerciseFilter(userID string, filter domain.LogFilter) bson.M {
	query := bson.M{"userId": userID}
	if filter.From == nil && filter.To == nil {
		return query
	}
	bounds := bson.M{}
	if filter.From != nil {
		bounds["$gte"] = *filter.From
	}
	if filter.To != nil {
		bounds["$lte"] = *filter.To
	}
	query["date"] = bounds
	return query
}

func toUser(doc userDocument) domain.User {
	return domain.User{ID: doc.ID.Hex(), Username: doc.Username, CreatedAt: doc.CreatedAt}
}

func toExercise(doc storedExercise) domain.Exercise {
	return domain.Exercise{
		ID:          doc.ID.Hex(),
		UserID:      doc.UserID,
		Description: coerceString(doc.Description),
		Duration:    coerceDuration(doc.Duration),
		Date:        coerceDate(doc.Date),
		CreatedAt:   doc.CreatedAt,
	}
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	}
	return ""
}

// coerceDuration returns NaN for values that are not numbers; the domain
// shapes those as zero.
func coerceDuration(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case primitive.Decimal128:
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// coerceDate returns the zero time for values that are not dates; the
// domain shapes those as today.
func coerceDate(v any) time.Time {
	switch d := v.(type) {
	case primitive.DateTime:
		return d.Time().UTC()
	case time.Time:
		return d.UTC()
	case string:
		if t, ok := domain.ParseDate(d); ok {
			return domain.CalendarDay(t)
		}
	}
	return time.Time{}
}
