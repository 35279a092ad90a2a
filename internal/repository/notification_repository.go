package repository

import (
	"context"
	"time"

	"order-workflow-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNotificationRepository struct {
	col *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{col: db.Collection("notifications")}
}

func (m *MongoNotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, n)
	return err
}

// FindByScopes devuelve las notificaciones de los scopes del caller
// (su userId, su departmentId y "admins" si corresponde), más nuevas
// primero.
func (m *MongoNotificationRepository) FindByScopes(ctx context.Context, scopes []string) ([]*model.Notification, error) {
	filter := bson.M{"recipient_scope": bson.M{"$in": scopes}}
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Notification
	for cur.Next(ctx) {
		var v model.Notification
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

// MarkRead solo marca notificaciones de los scopes del caller: nadie
// puede marcar como leída una notificación ajena.
func (m *MongoNotificationRepository) MarkRead(ctx context.Context, id string, scopes []string) error {
	now := time.Now().UTC()
	filter := bson.M{
		"notification_id": id,
		"recipient_scope": bson.M{"$in": scopes},
	}
	update := bson.M{"$set": bson.M{"read": true, "read_at": now}}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoNotificationRepository) MarkAllRead(ctx context.Context, scopes []string) error {
	now := time.Now().UTC()
	filter := bson.M{
		"recipient_scope": bson.M{"$in": scopes},
		"read":            false,
	}
	update := bson.M{"$set": bson.M{"read": true, "read_at": now}}

	_, err := m.col.UpdateMany(ctx, filter, update)
	return err
}
