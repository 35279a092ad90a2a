// Package cart mantiene la selección en curso de un usuario antes de
// crear el pedido. Es un value object en memoria: nunca se persiste
// del lado del servidor, el estado canónico vive en el workflow.
package cart

import (
	"errors"

	"order-workflow-service/internal/model"
)

var (
	ErrInvalidQuantity = errors.New("la cantidad debe ser al menos 1")
	ErrEmptyProduct    = errors.New("el artículo necesita un productId")
	ErrNotInCart       = errors.New("el artículo no está en el carrito")
)

type Cart struct {
	// orden de inserción preservado, las cantidades se acumulan
	order []string
	items map[string]int
}

func New() *Cart {
	return &Cart{items: map[string]int{}}
}

// AddItem suma la cantidad si el artículo ya estaba en el carrito.
func (c *Cart) AddItem(productID string, quantity int) error {
	if productID == "" {
		return ErrEmptyProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if _, ok := c.items[productID]; !ok {
		c.order = append(c.order, productID)
	}
	c.items[productID] += quantity
	return nil
}

// SetQuantity reemplaza la cantidad de un artículo ya agregado.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if _, ok := c.items[productID]; !ok {
		return ErrNotInCart
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	c.items[productID] = quantity
	return nil
}

func (c *Cart) RemoveItem(productID string) error {
	if _, ok := c.items[productID]; !ok {
		return ErrNotInCart
	}
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Clear() {
	c.order = nil
	c.items = map[string]int{}
}

// Items devuelve el snapshot inmutable que consume OrderWorkflow.create.
func (c *Cart) Items() []model.OrderItem {
	out := make([]model.OrderItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, model.OrderItem{ProductID: id, Quantity: c.items[id]})
	}
	return out
}
