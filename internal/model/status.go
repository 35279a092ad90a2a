// status.go
package model

// OrderStatus es un enum cerrado. Reemplaza las comparaciones de
// strings ad-hoc: se valida en cada borde (API, Rabbit, repositorio).
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusExported  OrderStatus = "exported"
	StatusUploaded  OrderStatus = "uploaded"
	StatusSubmitted OrderStatus = "submitted"
	StatusApproved  OrderStatus = "approved"
	StatusRejected  OrderStatus = "rejected"
)

var validStatuses = map[OrderStatus]bool{
	StatusPending:   true,
	StatusExported:  true,
	StatusUploaded:  true,
	StatusSubmitted: true,
	StatusApproved:  true,
	StatusRejected:  true,
}

// Estados finales: no admiten más transiciones.
var terminalStatuses = map[OrderStatus]bool{
	StatusApproved: true,
	StatusRejected: true,
}

func (s OrderStatus) Valid() bool {
	return validStatuses[s]
}

func (s OrderStatus) Terminal() bool {
	return terminalStatuses[s]
}

// ParseStatus valida un string recibido por un borde externo.
func ParseStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(raw)
	return s, s.Valid()
}
