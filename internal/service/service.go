package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"order-workflow-service/internal/model"
	"order-workflow-service/internal/repository"
	"order-workflow-service/internal/window"
)

// Interfaz que debe implementar repository
type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	FindActiveByDepartment(ctx context.Context, departmentID string) (*model.Order, error)
	ApplyTransition(ctx context.Context, orderID string, from, to model.OrderStatus, rec model.TransitionRecord, patch model.OrderPatch) error
	FindAll(ctx context.Context) ([]*model.Order, error)
	FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	FindByDepartment(ctx context.Context, departmentID string) ([]*model.Order, error)
}

// Catalog valida referencias de producto al crear el pedido. El
// workflow no necesita nada más del catálogo.
type Catalog interface {
	ProductExists(ctx context.Context, productID string) (bool, error)
}

// Actor es el contexto ya resuelto por el middleware de auth.
type Actor struct {
	UserID       string
	DepartmentID string
	IsAdmin      bool
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrInvalidTransition  = errors.New("transición de estado inválida")
	ErrWindowClosed       = errors.New("la ventana de pedidos está cerrada")
	ErrOrderAlreadyActive = errors.New("el departamento ya tiene un pedido activo")
	ErrInvalidPayload     = errors.New("payload inválido")
	ErrAlreadyResolved    = errors.New("el pedido ya fue resuelto")
	ErrUnauthorized       = errors.New("se requiere permiso de administrador")
	ErrForbidden          = errors.New("forbidden")
)

// Transiciones permitidas. El grafo solo avanza: una vez exportado,
// el pedido respalda un papel firmado y no puede volver atrás.
var legalTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.StatusPending:   {model.StatusExported},
	model.StatusExported:  {model.StatusUploaded},
	model.StatusUploaded:  {model.StatusSubmitted},
	model.StatusSubmitted: {model.StatusApproved, model.StatusRejected},
}

func canTransition(from, to model.OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type OrderWorkflowService struct {
	repo    OrderRepository
	gate    *window.Gate
	catalog Catalog

	// serialización: un create por departamento, una transición por orden
	mu         sync.Mutex
	deptLocks  map[string]*sync.Mutex
	orderLocks map[string]*sync.Mutex

	listenerMu sync.RWMutex
	listeners  []func(model.TransitionEvent)
}

func NewOrderWorkflowService(r OrderRepository, g *window.Gate, c Catalog) *OrderWorkflowService {
	return &OrderWorkflowService{
		repo:       r,
		gate:       g,
		catalog:    c,
		deptLocks:  map[string]*sync.Mutex{},
		orderLocks: map[string]*sync.Mutex{},
	}
}

// OnTransition registra un consumidor de eventos (el dispatcher de
// notificaciones). Los eventos se emiten después de confirmar la
// transición, con todos los locks liberados.
func (s *OrderWorkflowService) OnTransition(fn func(model.TransitionEvent)) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *OrderWorkflowService) emit(ev model.TransitionEvent) {
	s.listenerMu.RLock()
	listeners := make([]func(model.TransitionEvent), len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (s *OrderWorkflowService) lockFor(m map[string]*sync.Mutex, key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := m[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	m[key] = l
	return l
}

// Create crea el pedido en estado pending.
//
// Orden de los pasos, pensado para no hacer I/O con locks tomados:
//  1. validaciones puras + catálogo (sin locks)
//  2. lock del departamento
//  3. bajo el read-lock de la ventana: chequeo de ventana, chequeo de
//     pedido activo e inserción, como unidad (un toggle concurrente
//     nunca deja pasar un create que arrancó antes del cierre)
//  4. locks liberados, recién ahí se emite el evento
func (s *OrderWorkflowService) Create(ctx context.Context, actor Actor, items []model.OrderItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: el pedido debe tener al menos un artículo", ErrInvalidPayload)
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 {
			return nil, fmt.Errorf("%w: artículo inválido", ErrInvalidPayload)
		}
		if s.catalog != nil {
			exists, err := s.catalog.ProductExists(ctx, it.ProductID)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, fmt.Errorf("%w: el producto %s no existe", ErrInvalidPayload, it.ProductID)
			}
		}
	}

	now := time.Now().UTC()
	order := &model.Order{
		OrderID:      uuid.NewString(),
		DepartmentID: actor.DepartmentID,
		CreatedBy:    actor.UserID,
		Status:       model.StatusPending,
		Items:        append([]model.OrderItem(nil), items...),
		CreatedAt:    now,
		UpdatedAt:    now,
		History: []model.TransitionRecord{
			{
				To:        model.StatusPending,
				Actor:     actor.UserID,
				Comment:   "Pedido creado",
				Timestamp: now,
				Current:   true,
			},
		},
	}

	deptLock := s.lockFor(s.deptLocks, actor.DepartmentID)
	deptLock.Lock()

	err := s.gate.Guard(func(open bool) error {
		if !open {
			return ErrWindowClosed
		}
		_, ferr := s.repo.FindActiveByDepartment(ctx, actor.DepartmentID)
		if ferr == nil {
			return ErrOrderAlreadyActive
		}
		if !errors.Is(ferr, repository.ErrNotFound) {
			return ferr
		}
		return s.repo.Insert(ctx, order)
	})
	deptLock.Unlock()

	if err != nil {
		return nil, err
	}

	s.emit(model.TransitionEvent{
		OrderID:      order.OrderID,
		DepartmentID: order.DepartmentID,
		To:           model.StatusPending,
		Actor:        actor.UserID,
	})
	return order, nil
}

// transition aplica un paso del grafo con compare-and-swap sobre el
// estado. Si la precondición ya no vale no hay ningún efecto parcial.
func (s *OrderWorkflowService) transition(ctx context.Context, orderID string, from, to model.OrderStatus, actor, comment string, patch model.OrderPatch) (*model.Order, error) {
	if !canTransition(from, to) {
		return nil, ErrInvalidTransition
	}

	orderLock := s.lockFor(s.orderLocks, orderID)
	orderLock.Lock()

	rec := model.TransitionRecord{
		From:      from,
		To:        to,
		Actor:     actor,
		Comment:   comment,
		Timestamp: time.Now().UTC(),
		Current:   true,
	}
	err := s.repo.ApplyTransition(ctx, orderID, from, to, rec, patch)
	orderLock.Unlock()

	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, s.staleError(ctx, orderID, to)
		}
		return nil, err
	}

	updated, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.emit(model.TransitionEvent{
		OrderID:      updated.OrderID,
		DepartmentID: updated.DepartmentID,
		From:         from,
		To:           to,
		Actor:        actor,
		Comment:      comment,
	})
	return updated, nil
}

// staleError traduce la precondición vencida: sobre un pedido ya
// resuelto, un segundo approve/reject es AlreadyResolved (para que un
// doble click se vea, no que "funcione" dos veces); el resto es
// InvalidTransition.
func (s *OrderWorkflowService) staleError(ctx context.Context, orderID string, to model.OrderStatus) error {
	current, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if current.Status.Terminal() && to.Terminal() {
		return ErrAlreadyResolved
	}
	return ErrInvalidTransition
}

// requireOwner carga el pedido y verifica que el actor pertenezca al
// departamento dueño (o sea admin).
func (s *OrderWorkflowService) requireOwner(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	o, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && o.DepartmentID != actor.DepartmentID {
		return nil, ErrForbidden
	}
	return o, nil
}

// MarkExported la invoca DocumentExchange una vez que el PDF quedó
// guardado en el file store: pending → exported.
func (s *OrderWorkflowService) MarkExported(ctx context.Context, actor Actor, orderID, documentRef string) (*model.Order, error) {
	if _, err := s.requireOwner(ctx, actor, orderID); err != nil {
		return nil, err
	}
	patch := model.OrderPatch{UnsignedDocumentRef: &documentRef}
	return s.transition(ctx, orderID, model.StatusPending, model.StatusExported, actor.UserID, "", patch)
}

// MarkSigned la invoca DocumentExchange con la copia firmada ya
// validada y guardada: exported → uploaded.
func (s *OrderWorkflowService) MarkSigned(ctx context.Context, actor Actor, orderID, documentRef string) (*model.Order, error) {
	if _, err := s.requireOwner(ctx, actor, orderID); err != nil {
		return nil, err
	}
	patch := model.OrderPatch{SignedDocumentRef: &documentRef}
	return s.transition(ctx, orderID, model.StatusExported, model.StatusUploaded, actor.UserID, "", patch)
}

// Submit manda el pedido a aprobación: uploaded → submitted.
func (s *OrderWorkflowService) Submit(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	if _, err := s.requireOwner(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.transition(ctx, orderID, model.StatusUploaded, model.StatusSubmitted, actor.UserID, "", model.OrderPatch{})
}

// Approve resuelve el pedido. El comentario es opcional.
func (s *OrderWorkflowService) Approve(ctx context.Context, actor Actor, orderID, comment string) (*model.Order, error) {
	if !actor.IsAdmin {
		return nil, ErrUnauthorized
	}
	patch := model.OrderPatch{}
	if comment != "" {
		patch.AdminComment = &comment
	}
	return s.transition(ctx, orderID, model.StatusSubmitted, model.StatusApproved, actor.UserID, comment, patch)
}

// Reject resuelve el pedido en contra. El comentario es obligatorio:
// es el único canal de feedback que tiene el solicitante.
func (s *OrderWorkflowService) Reject(ctx context.Context, actor Actor, orderID, comment string) (*model.Order, error) {
	if !actor.IsAdmin {
		return nil, ErrUnauthorized
	}
	if comment == "" {
		return nil, fmt.Errorf("%w: el comentario de rechazo es obligatorio", ErrInvalidPayload)
	}
	patch := model.OrderPatch{AdminComment: &comment}
	return s.transition(ctx, orderID, model.StatusSubmitted, model.StatusRejected, actor.UserID, comment, patch)
}

// Getters
func (s *OrderWorkflowService) GetOrder(ctx context.Context, actor Actor, orderID string) (*model.Order, error) {
	return s.requireOwner(ctx, actor, orderID)
}

func (s *OrderWorkflowService) GetByDepartment(ctx context.Context, departmentID string) ([]*model.Order, error) {
	return s.repo.FindByDepartment(ctx, departmentID)
}

func (s *OrderWorkflowService) GetAll(ctx context.Context) ([]*model.Order, error) {
	return s.repo.FindAll(ctx)
}

func (s *OrderWorkflowService) GetByStatus(ctx context.Context, raw string) ([]*model.Order, error) {
	status, ok := model.ParseStatus(raw)
	if !ok {
		return nil, fmt.Errorf("%w: estado desconocido %q", ErrInvalidPayload, raw)
	}
	return s.repo.FindByStatus(ctx, status)
}
