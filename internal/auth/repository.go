package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository handles DB lookups for users.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a repository over the users collection.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) findMany(ctx context.Context, filter bson.M) ([]*User, error) {
	opts := options.Find().SetProjection(bson.M{"password_hash": 0})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var users []*User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByID returns the user or nil when it does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail returns the user with the normalized email, or nil.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

// FindByPhone returns the user with the phone number, or nil.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

// FindByRole returns every user with the role.
func (r *UserRepository) FindByRole(ctx context.Context, role Role) ([]*User, error) {
	return r.findMany(ctx, bson.M{"role": role})
}

// FindStaffInScope returns staff whose school and department both match,
// ignoring case and surrounding whitespace.
func (r *UserRepository) FindStaffInScope(ctx context.Context, school, department string) ([]*User, error) {
	filter := bson.M{
		"role":       RoleStaff,
		"school":     foldRegex(school),
		"department": foldRegex(department),
	}
	return r.findMany(ctx, filter)
}

func foldRegex(value string) primitive.Regex {
	return primitive.Regex{Pattern: ScopePattern(value), Options: "i"}
}
