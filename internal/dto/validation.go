// validation.go
package dto

import (
	"github.com/gin-gonic/gin/binding"
	validatorv10 "github.com/go-playground/validator/v10"
)

// RegisterValidations engancha la regla struct-level al validador que
// usa gin en ShouldBindJSON. Llamar una sola vez desde main.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validatorv10.Validate); ok {
		v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})
	}
}

// createOrderStructValidation rechaza productIds duplicados: el pedido
// es un snapshot inmutable, un duplicado casi siempre es un doble click.
func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	seen := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		if seen[it.ProductID] {
			sl.ReportError(req.Items, "items", "Items", "unique_product_ids", it.ProductID)
			return
		}
		seen[it.ProductID] = true
	}
}
