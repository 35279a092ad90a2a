// models.go
package model

import "time"

// Order representa un pedido de papelería de un departamento.
// Los items son inmutables después de la creación: una vez exportado
// el PDF, el pedido es un documento firmado en papel y no puede cambiar.
type Order struct {
	OrderID      string             `bson:"order_id" json:"orderId"`
	DepartmentID string             `bson:"department_id" json:"departmentId"`
	CreatedBy    string             `bson:"created_by" json:"createdBy"`
	Status       OrderStatus        `bson:"status" json:"status"` // estado actual
	Items        []OrderItem        `bson:"items" json:"items"`
	AdminComment string             `bson:"admin_comment,omitempty" json:"adminComment,omitempty"`
	History      []TransitionRecord `bson:"history" json:"history"`

	// Referencias opacas a los PDFs en el file store (GridFS).
	UnsignedDocumentRef string `bson:"unsigned_document_ref,omitempty" json:"unsignedDocumentRef,omitempty"`
	SignedDocumentRef   string `bson:"signed_document_ref,omitempty" json:"signedDocumentRef,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

type OrderItem struct {
	ProductID string `bson:"product_id" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

type TransitionRecord struct {
	From      OrderStatus `bson:"from" json:"from"`
	To        OrderStatus `bson:"to" json:"to"`
	Actor     string      `bson:"actor" json:"actor"`
	Comment   string      `bson:"comment,omitempty" json:"comment,omitempty"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`

	// Para marcar cuál es el último
	Current bool `bson:"current" json:"current"`
}

// OrderPatch son los campos opcionales que una transición puede
// escribir junto con el cambio de estado. Nil significa "no tocar".
type OrderPatch struct {
	UnsignedDocumentRef *string
	SignedDocumentRef   *string
	AdminComment        *string
}

// TransitionEvent se emite de forma síncrona después de que la
// transición quedó confirmada en el repositorio.
type TransitionEvent struct {
	OrderID      string
	DepartmentID string
	From         OrderStatus
	To           OrderStatus
	Actor        string
	Comment      string
}
