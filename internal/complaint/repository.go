package complaint

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ComplaintDesk/internal/access"
	"ComplaintDesk/internal/auth"
)

// CollectionName is the Mongo collection holding complaints.
const CollectionName = "complaints"

// Repository is the Mongo-backed Store.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository creates a repository over the complaints collection.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection(CollectionName)}
}

// Insert stores a new complaint and sets its ID.
func (r *Repository) Insert(ctx context.Context, c *Complaint) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*Complaint, error) {
	var c Complaint
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Find returns the complaints inside scope, newest first.
func (r *Repository) Find(ctx context.Context, scope access.Scope, filter Filter) ([]*Complaint, error) {
	query, ok := scopeFilter(scope)
	if !ok {
		return []*Complaint{}, nil
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	complaints := []*Complaint{}
	if err := cursor.All(ctx, &complaints); err != nil {
		return nil, err
	}
	return complaints, nil
}

// Save replaces the stored document. The last writer wins.
func (r *Repository) Save(ctx context.Context, c *Complaint) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes the complaint and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// CountByStatus groups every complaint by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status Status `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// scopeFilter translates a listing scope into a query. The second value is
// false when the scope matches nothing and no query should run.
func scopeFilter(scope access.Scope) (bson.M, bool) {
	switch {
	case scope.Unrestricted:
		return bson.M{}, true
	case scope.Staff:
		assigned := bson.M{"assigned_to": scope.AssigneeID}
		school := foldRegex(scope.School)
		if auth.NormalizeScope(scope.Department) == "" {
			return bson.M{"$or": bson.A{bson.M{"school": school}, assigned}}, true
		}
		return bson.M{
			"school": school,
			"$or":    bson.A{bson.M{"department": foldRegex(scope.Department)}, assigned},
		}, true
	case !scope.OwnerID.IsZero():
		return bson.M{"user_id": scope.OwnerID}, true
	default:
		return nil, false
	}
}

func foldRegex(value string) primitive.Regex {
	return primitive.Regex{Pattern: auth.ScopePattern(value), Options: "i"}
}
