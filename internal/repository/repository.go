package repository

import (
	"context"
	"errors"
	"time"

	"order-workflow-service/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("orden no encontrada")
	// ErrStaleStatus: la orden existe pero ya no está en el estado que
	// la transición esperaba. El servicio decide cómo reportarlo.
	ErrStaleStatus = errors.New("la orden no está en el estado esperado")
)

// Mongo implementation
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

func (m *MongoOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	_, err := m.col.InsertOne(ctx, o)
	return err
}

func (m *MongoOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var res model.Order
	err := m.col.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

// FindActiveByDepartment busca la orden no-terminal del departamento.
// A lo sumo hay una: el servicio serializa los create por departamento.
func (m *MongoOrderRepository) FindActiveByDepartment(ctx context.Context, departmentID string) (*model.Order, error) {
	filter := bson.M{
		"department_id": departmentID,
		"status":        bson.M{"$nin": bson.A{model.StatusApproved, model.StatusRejected}},
	}
	var res model.Order
	err := m.col.FindOne(ctx, filter).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	return &res, err
}

// ApplyTransition hace el compare-and-swap sobre el estado: el filtro
// exige el estado "from", así una transición vieja nunca pisa una
// nueva. Es UN solo UpdateOne: el cambio de estado, el push al
// historial y el desmarque del registro current salen juntos o no
// sale nada, así una falla a mitad de camino nunca deja la orden en
// un estado del que no se pueda reintentar el mismo evento.
func (m *MongoOrderRepository) ApplyTransition(ctx context.Context, orderID string, from, to model.OrderStatus, rec model.TransitionRecord, patch model.OrderPatch) error {
	filter, update, opts := transitionUpdate(orderID, from, to, rec, patch)

	res, err := m.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguir entre orden inexistente y precondición vencida
		if _, ferr := m.FindByOrderID(ctx, orderID); ferr != nil {
			return ferr
		}
		return ErrStaleStatus
	}
	return nil
}

// transitionUpdate arma el write atómico de una transición. El
// registro viejo del historial se desmarca vía arrayFilters en el
// mismo documento de update que setea el estado nuevo.
func transitionUpdate(orderID string, from, to model.OrderStatus, rec model.TransitionRecord, patch model.OrderPatch) (bson.M, bson.M, *options.UpdateOptions) {
	set := bson.M{
		"status":                 to,
		"updated_at":             time.Now().UTC(),
		"history.$[cur].current": false,
	}
	if patch.UnsignedDocumentRef != nil {
		set["unsigned_document_ref"] = *patch.UnsignedDocumentRef
	}
	if patch.SignedDocumentRef != nil {
		set["signed_document_ref"] = *patch.SignedDocumentRef
	}
	if patch.AdminComment != nil {
		set["admin_comment"] = *patch.AdminComment
	}

	filter := bson.M{"order_id": orderID, "status": from}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"history": rec},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: bson.A{bson.M{"cur.current": true}},
	})
	return filter, update, opts
}

func (m *MongoOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{})
}

func (m *MongoOrderRepository) FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{"status": status})
}

func (m *MongoOrderRepository) FindByDepartment(ctx context.Context, departmentID string) ([]*model.Order, error) {
	return m.findMany(ctx, bson.M{"department_id": departmentID})
}

func (m *MongoOrderRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Order, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Order
	for cur.Next(ctx) {
		var v model.Order
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
