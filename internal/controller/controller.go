package controller

import (
	"errors"
	"io"
	"net/http"

	"order-workflow-service/internal/document"
	"order-workflow-service/internal/dto"
	"order-workflow-service/internal/middleware"
	"order-workflow-service/internal/model"
	"order-workflow-service/internal/repository"
	"order-workflow-service/internal/service"
	"order-workflow-service/internal/window"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Service  *service.OrderWorkflowService
	Exchange *document.Exchange
	Gate     *window.Gate
}

func NewOrderController(s *service.OrderWorkflowService, e *document.Exchange, g *window.Gate) *OrderController {
	return &OrderController{Service: s, Exchange: e, Gate: g}
}

// Cada falla devuelve un kind estable más la razón legible; la
// traducción/presentación es del front, no de este servicio.
func errKind(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrWindowClosed):
		return http.StatusConflict, "window_closed"
	case errors.Is(err, service.ErrOrderAlreadyActive):
		return http.StatusConflict, "order_already_active"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrAlreadyResolved):
		return http.StatusConflict, "already_resolved"
	case errors.Is(err, service.ErrInvalidPayload):
		return http.StatusUnprocessableEntity, "invalid_payload"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func fail(c *gin.Context, err error) {
	status, kind := errKind(err)
	c.JSON(status, gin.H{"kind": kind, "error": err.Error()})
}

// POST /orders — requiere token
func (ctl *OrderController) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_payload", "error": err.Error()})
		return
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := ctl.Service.Create(c.Request.Context(), middleware.ActorFrom(c), items)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

// POST /orders/:orderId/export
func (ctl *OrderController) ExportOrder(c *gin.Context) {
	order, err := ctl.Exchange.Export(c.Request.Context(), middleware.ActorFrom(c), c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// POST /orders/:orderId/signed — multipart, campo "file"
func (ctl *OrderController) UploadSigned(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_payload", "error": "falta el campo file"})
		return
	}

	src, err := file.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer src.Close()

	// leer a lo sumo un byte más que el límite: alcanza para que la
	// validación de tamaño rechace sin bufferear el archivo entero
	var reader io.Reader = src
	if max := ctl.Exchange.MaxBytes(); max > 0 {
		reader = io.LimitReader(src, max+1)
	}

	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		fail(c, err)
		return
	}

	order, err := ctl.Exchange.UploadSigned(c.Request.Context(), middleware.ActorFrom(c), c.Param("orderId"), fileBytes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// GET /orders/:orderId/document/:kind — unsigned | signed
func (ctl *OrderController) DownloadDocument(c *gin.Context) {
	data, err := ctl.Exchange.Download(c.Request.Context(), middleware.ActorFrom(c), c.Param("orderId"), c.Param("kind"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", data)
}

// POST /orders/:orderId/submit
func (ctl *OrderController) SubmitOrder(c *gin.Context) {
	order, err := ctl.Service.Submit(c.Request.Context(), middleware.ActorFrom(c), c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// GET /orders/mine — pedidos del departamento del caller
func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	orders, err := ctl.Service.GetByDepartment(c.Request.Context(), c.GetString("departmentID"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(orders))
}

// GET /orders/:orderId — dueño o admin
func (ctl *OrderController) GetOrder(c *gin.Context) {
	order, err := ctl.Service.GetOrder(c.Request.Context(), middleware.ActorFrom(c), c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// POST /admin/orders/:orderId/approve
func (ctl *OrderController) ApproveOrder(c *gin.Context) {
	var req dto.ResolveRequest
	// el body es opcional en approve: sin body no hay comentario
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_payload", "error": err.Error()})
		return
	}

	order, err := ctl.Service.Approve(c.Request.Context(), middleware.ActorFrom(c), c.Param("orderId"), req.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// POST /admin/orders/:orderId/reject — comment obligatorio
func (ctl *OrderController) RejectOrder(c *gin.Context) {
	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_payload", "error": err.Error()})
		return
	}

	order, err := ctl.Service.Reject(c.Request.Context(), middleware.ActorFrom(c), c.Param("orderId"), req.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

// GET /admin/orders/all
func (ctl *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := ctl.Service.GetAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(orders))
}

// GET /admin/orders/state/:state
func (ctl *OrderController) GetAllOrdersByState(c *gin.Context) {
	orders, err := ctl.Service.GetByStatus(c.Request.Context(), c.Param("state"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponses(orders))
}

// GET /window — pública, para el banner del storefront
func (ctl *OrderController) CheckWindow(c *gin.Context) {
	ev := ctl.Gate.Check()
	c.JSON(http.StatusOK, dto.WindowResponse{Open: ev.Open, Version: ev.Version})
}

// PUT /admin/window
func (ctl *OrderController) ToggleWindow(c *gin.Context) {
	var req dto.ToggleWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": "invalid_payload", "error": err.Error()})
		return
	}

	ev := ctl.Gate.Toggle(*req.Open)
	c.JSON(http.StatusOK, dto.WindowResponse{Open: ev.Open, Version: ev.Version})
}

func toResponses(orders []*model.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.ToOrderResponse(o))
	}
	return out
}
