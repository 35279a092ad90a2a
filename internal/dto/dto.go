// dto.go
package dto

import (
	"time"

	"order-workflow-service/internal/model"
)

// CreateOrderRequest usado por la API para crear el pedido a partir
// del carrito del cliente.
type CreateOrderRequest struct {
	Items []OrderItemDTO `json:"items" binding:"required,min=1,dive"`
}

type OrderItemDTO struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// ResolveRequest para approve/reject. El comment es obligatorio solo
// en reject; eso lo valida el servicio, no el binding.
type ResolveRequest struct {
	Comment string `json:"comment"`
}

type ToggleWindowRequest struct {
	Open *bool `json:"open" binding:"required"`
}

type OrderResponse struct {
	OrderID             string                   `json:"orderId"`
	DepartmentID        string                   `json:"departmentId"`
	CreatedBy           string                   `json:"createdBy"`
	Status              model.OrderStatus        `json:"status"`
	Items               []model.OrderItem        `json:"items"`
	AdminComment        string                   `json:"adminComment,omitempty"`
	UnsignedDocumentRef string                   `json:"unsignedDocumentRef,omitempty"`
	SignedDocumentRef   string                   `json:"signedDocumentRef,omitempty"`
	History             []model.TransitionRecord `json:"history"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
}

func ToOrderResponse(o *model.Order) OrderResponse {
	return OrderResponse{
		OrderID:             o.OrderID,
		DepartmentID:        o.DepartmentID,
		CreatedBy:           o.CreatedBy,
		Status:              o.Status,
		Items:               o.Items,
		AdminComment:        o.AdminComment,
		UnsignedDocumentRef: o.UnsignedDocumentRef,
		SignedDocumentRef:   o.SignedDocumentRef,
		History:             o.History,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

type WindowResponse struct {
	Open    bool   `json:"open"`
	Version uint64 `json:"version"`
}
