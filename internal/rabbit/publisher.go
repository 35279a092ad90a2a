// publisher.go
package rabbit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"order-workflow-service/internal/model"
	"order-workflow-service/internal/window"
)

const (
	ExchangeWindow        = "order_window"
	ExchangeNotifications = "order_notifications"
	ExchangeWindowToggle  = "order_window_toggle"
)

type Publisher struct {
	ch *amqp091.Channel
}

// NewPublisher declara los exchanges fanout que publica este
// servicio: los cambios de ventana para todos los clientes conectados
// y la entrega de notificaciones.
func NewPublisher(ch *amqp091.Channel) (*Publisher, error) {
	for _, ex := range []string{ExchangeWindow, ExchangeNotifications} {
		if err := ch.ExchangeDeclare(ex, "fanout", true, false, false, false, nil); err != nil {
			return nil, err
		}
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) publish(exchange string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(ctx, exchange, "", false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// PublishWindowChange transmite {open, version} a todos los
// suscriptores. Best-effort: un broadcast perdido no deshace el
// toggle, los clientes igual ven el estado real en el próximo check.
func (p *Publisher) PublishWindowChange(ev window.ChangeEvent) {
	if err := p.publish(ExchangeWindow, ev); err != nil {
		log.Println("❌ Error publicando cambio de ventana:", err)
	}
}

// Deliver implementa notification.Deliverer sobre el fanout de
// notificaciones. Los retries son del transporte, no nuestros.
func (p *Publisher) Deliver(n *model.Notification) error {
	return p.publish(ExchangeNotifications, n)
}
