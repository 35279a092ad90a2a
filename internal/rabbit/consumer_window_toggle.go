package rabbit

import (
	"encoding/json"
	"log"

	"order-workflow-service/internal/window"
)

// WindowToggleConsumer aplica los toggles que manda el scheduler
// externo (apertura/cierre programado de la ventana de pedidos).
type WindowToggleConsumer struct {
	Gate *window.Gate
}

func NewWindowToggleConsumer(g *window.Gate) *WindowToggleConsumer {
	return &WindowToggleConsumer{Gate: g}
}

type WindowToggleMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		Open bool `json:"open"`
	} `json:"message"`
}

func (c *WindowToggleConsumer) Handle(msg []byte) error {

	log.Println("[Rabbit] Evento recibido: window_toggle")

	var event WindowToggleMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		log.Println("Error parseando mensaje:", err)
		return err
	}

	ev := c.Gate.Toggle(event.Message.Open)

	log.Printf("✔ Ventana de pedidos open=%v (version %d)", ev.Open, ev.Version)
	return nil
}
