// Package notification convierte eventos de transición en registros
// de notificación y los entrega por el transporte. La entrega es
// best-effort: el cambio de estado del pedido ya quedó confirmado y
// ninguna falla acá lo toca.
package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"order-workflow-service/internal/model"
)

type NotificationRepository interface {
	Insert(ctx context.Context, n *model.Notification) error
	FindByScopes(ctx context.Context, scopes []string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id string, scopes []string) error
	MarkAllRead(ctx context.Context, scopes []string) error
}

// Deliverer es el transporte externo (Rabbit, push, email). Si falla,
// se loguea y listo: la política de retry es del transporte.
type Deliverer interface {
	Deliver(n *model.Notification) error
}

type Dispatcher struct {
	repo      NotificationRepository
	transport Deliverer
}

func NewDispatcher(repo NotificationRepository, transport Deliverer) *Dispatcher {
	return &Dispatcher{repo: repo, transport: transport}
}

// HandleTransition es el suscriptor que se registra en el workflow
// con OnTransition. Nunca devuelve error: una notificación perdida no
// puede voltear ni bloquear una transición ya confirmada.
func (d *Dispatcher) HandleTransition(ev model.TransitionEvent) {
	n := buildNotification(ev)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.repo.Insert(ctx, n); err != nil {
		log.Printf("no se pudo guardar la notificación del pedido %s: %v", ev.OrderID, err)
		return
	}
	if d.transport != nil {
		if err := d.transport.Deliver(n); err != nil {
			log.Printf("no se pudo entregar la notificación %s: %v", n.ID, err)
		}
	}
}

// buildNotification aplica el mapeo transición → notificación:
// approved y rejected avisan al departamento con prioridad alta,
// submitted avisa a los admins con prioridad media, el resto avisa
// al departamento con prioridad normal.
func buildNotification(ev model.TransitionEvent) *model.Notification {
	n := &model.Notification{
		ID:             uuid.NewString(),
		RecipientScope: ev.DepartmentID,
		Type:           model.NotificationTypeOrder,
		Priority:       model.PriorityNormal,
		CreatedAt:      time.Now().UTC(),
		Metadata: map[string]string{
			"order_id": ev.OrderID,
			"from":     string(ev.From),
			"to":       string(ev.To),
		},
	}

	switch ev.To {
	case model.StatusApproved:
		n.Priority = model.PriorityHigh
		n.Title = "Pedido aprobado"
		n.Message = fmt.Sprintf("El pedido %s fue aprobado.", ev.OrderID)
		if ev.Comment != "" {
			n.Message += " " + ev.Comment
		}
	case model.StatusRejected:
		n.Priority = model.PriorityHigh
		n.Title = "Pedido rechazado"
		n.Message = fmt.Sprintf("El pedido %s fue rechazado: %s", ev.OrderID, ev.Comment)
	case model.StatusSubmitted:
		n.RecipientScope = model.RecipientAdmins
		n.Priority = model.PriorityMedium
		n.Title = "Pedido para aprobar"
		n.Message = fmt.Sprintf("El departamento %s envió el pedido %s para su aprobación.", ev.DepartmentID, ev.OrderID)
	case model.StatusPending:
		// el evento de creación no tiene estado de origen
		n.Title = "Pedido creado"
		n.Message = fmt.Sprintf("El pedido %s fue creado.", ev.OrderID)
	default:
		n.Title = "Pedido actualizado"
		n.Message = fmt.Sprintf("El pedido %s pasó a %s.", ev.OrderID, ev.To)
	}
	return n
}

// List devuelve las notificaciones de los scopes del caller.
func (d *Dispatcher) List(ctx context.Context, scopes []string) ([]*model.Notification, error) {
	return d.repo.FindByScopes(ctx, scopes)
}

func (d *Dispatcher) MarkRead(ctx context.Context, id string, scopes []string) error {
	return d.repo.MarkRead(ctx, id, scopes)
}

func (d *Dispatcher) MarkAllRead(ctx context.Context, scopes []string) error {
	return d.repo.MarkAllRead(ctx, scopes)
}

// ScopesFor arma los scopes que puede leer un actor: su usuario, su
// departamento y, si es admin, la bandeja de admins.
func ScopesFor(userID, departmentID string, isAdmin bool) []string {
	scopes := []string{userID, departmentID}
	if isAdmin {
		scopes = append(scopes, model.RecipientAdmins)
	}
	return scopes
}
