package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coscribe/coscribe/internal/note"
)

// MongoRepo implements a MongoDB-backed note repository. ApplyEdit uses a
// single aggregation-pipeline update so the prior-body capture and the
// overwrite are one atomic server-side operation; no read-modify-write race
// can put a never-existed state into history.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// shareToken is globally unique when present; sparse so unshared notes
	// don't collide on the missing value
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "shareToken", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, n *note.Note) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, n); err != nil {
		return "", err
	}
	return n.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*note.Note, error) {
	var n note.Note
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (m *MongoRepo) ListForUser(ctx context.Context, userID string) ([]*note.Note, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"ownerId": userID},
		bson.M{"permissions.userId": userID},
	}}
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*note.Note{}
	for cur.Next(ctx) {
		var n note.Note
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, cur.Err()
}

func (m *MongoRepo) GetByShareToken(ctx context.Context, token string) (*note.Note, error) {
	var n note.Note
	err := m.col.FindOne(ctx, bson.M{"shareToken": token}).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (m *MongoRepo) ApplyEdit(ctx context.Context, id, title, content, editorID string) (*note.Note, error) {
	now := time.Now().UTC()
	// "$content" resolves against the pre-update document, so the entry
	// pushed onto history is the prior body.
	entry := bson.M{
		"content":   "$content",
		"updatedBy": bson.M{"$literal": editorID},
		"updatedAt": now,
	}
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"history": bson.M{"$slice": bson.A{
				bson.M{"$concatArrays": bson.A{
					bson.M{"$ifNull": bson.A{"$history", bson.A{}}},
					bson.A{entry},
				}},
				-note.HistoryCap,
			}},
			"title":     bson.M{"$literal": title},
			"content":   bson.M{"$literal": content},
			"updatedAt": now,
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n note.Note
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (m *MongoRepo) SetPermissions(ctx context.Context, id string, perms []note.Permission) (*note.Note, error) {
	update := bson.M{"$set": bson.M{"permissions": perms, "updatedAt": time.Now().UTC()}}
	return m.findOneAndUpdate(ctx, id, update)
}

func (m *MongoRepo) SetShare(ctx context.Context, id string, shared bool, token string, perm note.SharePermission) (*note.Note, error) {
	set := bson.M{"shared": shared, "sharePermission": perm, "updatedAt": time.Now().UTC()}
	if token != "" {
		set["shareToken"] = token
	}
	return m.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) findOneAndUpdate(ctx context.Context, id string, update interface{}) (*note.Note, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var n note.Note
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}
