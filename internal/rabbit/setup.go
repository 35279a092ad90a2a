// setup.go
package rabbit

import (
	"log"

	"order-workflow-service/internal/window"

	"github.com/rabbitmq/amqp091-go"
)

func SetupConsumers(ch *amqp091.Channel, gate *window.Gate) {
	consumer := NewWindowToggleConsumer(gate)

	// 1. Declarar exchange y queue del toggle
	err := ch.ExchangeDeclare(ExchangeWindowToggle, "fanout", true, false, false, false, nil)
	if err != nil {
		log.Println("❌ Error declarando exchange:", err)
		return
	}

	q, err := ch.QueueDeclare(
		"order_workflow_window_toggle", // cola exclusiva para tu micro
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("❌ Error declarando queue:", err)
		return
	}

	// 2. Bindear al exchange fanout
	err = ch.QueueBind(
		q.Name,
		"", // fanout ignora routing key
		ExchangeWindowToggle,
		false,
		nil,
	)
	if err != nil {
		log.Println("❌ Error binding exchange:", err)
		return
	}

	// 3. Consumir
	msgs, err := ch.Consume(
		q.Name,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Println("❌ Error al consumir queue:", err)
		return
	}

	go func() {
		for m := range msgs {
			consumer.Handle(m.Body)
		}
	}()

	log.Println("🐰 Suscrito a exchange order_window_toggle (fanout)")
}
