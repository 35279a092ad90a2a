package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"order-workflow-service/internal/model"
)

// Implementaciones en memoria con la misma semántica que las de
// Mongo. Se usan en los tests y para correr el servicio sin
// infraestructura (modo demo).

type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*model.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: map[string]*model.Order{}}
}

func cloneOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	cp.History = append([]model.TransitionRecord(nil), o.History...)
	return &cp
}

func (m *MemoryOrderRepository) Insert(ctx context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	m.orders[o.OrderID] = cloneOrder(o)
	return nil
}

func (m *MemoryOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *MemoryOrderRepository) FindActiveByDepartment(ctx context.Context, departmentID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.orders {
		if o.DepartmentID == departmentID && !o.Status.Terminal() {
			return cloneOrder(o), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryOrderRepository) ApplyTransition(ctx context.Context, orderID string, from, to model.OrderStatus, rec model.TransitionRecord, patch model.OrderPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrStaleStatus
	}

	for i := range o.History {
		o.History[i].Current = false
	}
	o.History = append(o.History, rec)
	o.Status = to
	o.UpdatedAt = time.Now().UTC()

	if patch.UnsignedDocumentRef != nil {
		o.UnsignedDocumentRef = *patch.UnsignedDocumentRef
	}
	if patch.SignedDocumentRef != nil {
		o.SignedDocumentRef = *patch.SignedDocumentRef
	}
	if patch.AdminComment != nil {
		o.AdminComment = *patch.AdminComment
	}
	return nil
}

func (m *MemoryOrderRepository) FindAll(ctx context.Context) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Order
	for _, o := range m.orders {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func (m *MemoryOrderRepository) FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Order
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (m *MemoryOrderRepository) FindByDepartment(ctx context.Context, departmentID string) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Order
	for _, o := range m.orders {
		if o.DepartmentID == departmentID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

type MemoryNotificationRepository struct {
	mu    sync.Mutex
	notes []*model.Notification
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

func (m *MemoryNotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	m.notes = append(m.notes, &cp)
	return nil
}

func inScopes(scope string, scopes []string) bool {
	for _, s := range scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (m *MemoryNotificationRepository) FindByScopes(ctx context.Context, scopes []string) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Notification
	// más nuevas primero: recorremos al revés del orden de inserción
	for i := len(m.notes) - 1; i >= 0; i-- {
		if inScopes(m.notes[i].RecipientScope, scopes) {
			cp := *m.notes[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryNotificationRepository) MarkRead(ctx context.Context, id string, scopes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notes {
		if n.ID == id && inScopes(n.RecipientScope, scopes) {
			now := time.Now().UTC()
			n.Read = true
			n.ReadAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryNotificationRepository) MarkAllRead(ctx context.Context, scopes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for _, n := range m.notes {
		if !n.Read && inScopes(n.RecipientScope, scopes) {
			n.Read = true
			n.ReadAt = &now
		}
	}
	return nil
}

type MemoryFileStore struct {
	mu    sync.Mutex
	seq   int
	files map[string][]byte
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{files: map[string][]byte{}}
}

func (m *MemoryFileStore) Store(ctx context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	ref := fmt.Sprintf("mem-%d-%s", m.seq, name)
	m.files[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (m *MemoryFileStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}
