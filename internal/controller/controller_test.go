package controller

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-workflow-service/internal/document"
	"order-workflow-service/internal/dto"
	"order-workflow-service/internal/middleware"
	"order-workflow-service/internal/model"
	"order-workflow-service/internal/notification"
	"order-workflow-service/internal/repository"
	"order-workflow-service/internal/service"
	"order-workflow-service/internal/window"
)

// testAuth reemplaza al middleware real: el caller viaja en headers.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", c.GetHeader("X-Test-User"))
		c.Set("departmentID", c.GetHeader("X-Test-Department"))
		c.Set("isAdmin", c.GetHeader("X-Test-Admin") == "true")
		c.Next()
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterMax(t, 1<<20)
}

func newTestRouterMax(t *testing.T, maxBytes int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dto.RegisterValidations()

	orderRepo := repository.NewMemoryOrderRepository()
	noteRepo := repository.NewMemoryNotificationRepository()
	fileStore := repository.NewMemoryFileStore()

	gate := window.NewGate(true)
	workflow := service.NewOrderWorkflowService(orderRepo, gate, nil)
	exchange := document.NewExchange(workflow, fileStore, maxBytes)
	dispatcher := notification.NewDispatcher(noteRepo, nil)
	workflow.OnTransition(dispatcher.HandleTransition)

	ctrl := NewOrderController(workflow, exchange, gate)
	noteCtrl := NewNotificationController(dispatcher)

	r := gin.New()
	r.GET("/window", ctrl.CheckWindow)

	auth := r.Group("/")
	auth.Use(testAuth())
	auth.POST("/orders", ctrl.CreateOrder)
	auth.GET("/orders/mine", ctrl.GetMyOrders)
	auth.GET("/orders/:orderId", ctrl.GetOrder)
	auth.POST("/orders/:orderId/export", ctrl.ExportOrder)
	auth.POST("/orders/:orderId/signed", ctrl.UploadSigned)
	auth.GET("/orders/:orderId/document/:kind", ctrl.DownloadDocument)
	auth.POST("/orders/:orderId/submit", ctrl.SubmitOrder)
	auth.GET("/notifications", noteCtrl.List)
	auth.POST("/notifications/:id/read", noteCtrl.MarkRead)
	auth.POST("/notifications/read-all", noteCtrl.MarkAllRead)

	admin := auth.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.POST("/orders/:orderId/approve", ctrl.ApproveOrder)
	admin.POST("/orders/:orderId/reject", ctrl.RejectOrder)
	admin.GET("/orders/all", ctrl.GetAllOrders)
	admin.GET("/orders/state/:state", ctrl.GetAllOrdersByState)
	admin.PUT("/window", ctrl.ToggleWindow)

	return r
}

type caller struct {
	user, dept string
	admin      bool
}

var (
	dept7  = caller{user: "u-1", dept: "dep-7"}
	admin1 = caller{user: "admin-1", dept: "dep-admin", admin: true}
)

func do(t *testing.T, r *gin.Engine, who caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", who.user)
	req.Header.Set("X-Test-Department", who.dept)
	if who.admin {
		req.Header.Set("X-Test-Admin", "true")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) dto.OrderResponse {
	t.Helper()
	var out dto.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func errKindOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	kind, _ := out["kind"].(string)
	return kind
}

func createBody(qty int) gin.H {
	return gin.H{"items": []gin.H{{"productId": "prod-7", "quantity": qty}}}
}

func uploadSigned(t *testing.T, r *gin.Engine, who caller, orderID string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "firmado.pdf")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/signed", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Test-User", who.user)
	req.Header.Set("X-Test-Department", who.dept)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, dept7, http.MethodPost, "/orders", createBody(3))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	o := decodeOrder(t, w)
	assert.Equal(t, model.StatusPending, o.Status)
	assert.Equal(t, "dep-7", o.DepartmentID)
}

func TestCreateOrderBadPayloads(t *testing.T) {
	r := newTestRouter(t)

	// sin items
	w := do(t, r, dept7, http.MethodPost, "/orders", gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// cantidad cero (binding min=1)
	w = do(t, r, dept7, http.MethodPost, "/orders", createBody(0))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// productIds duplicados (regla struct-level)
	w = do(t, r, dept7, http.MethodPost, "/orders", gin.H{"items": []gin.H{
		{"productId": "prod-7", "quantity": 1},
		{"productId": "prod-7", "quantity": 2},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWindowClosedOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, admin1, http.MethodPut, "/admin/window", gin.H{"open": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, dept7, http.MethodPost, "/orders", createBody(1))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "window_closed", errKindOf(t, w))

	// el check público lo refleja
	w = do(t, r, caller{}, http.MethodGet, "/window", nil)
	var win dto.WindowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &win))
	assert.False(t, win.Open)
	assert.Equal(t, uint64(1), win.Version)
}

func TestToggleWindowRequiresAdmin(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, dept7, http.MethodPut, "/admin/window", gin.H{"open": false})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// Escenario completo: create → export → upload → submit → reject,
// con las notificaciones que corresponden a cada punta.
func TestOrderLifecycleScenario(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, dept7, http.MethodPost, "/orders", createBody(3))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeOrder(t, w).OrderID

	w = do(t, r, dept7, http.MethodPost, "/orders/"+orderID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	o := decodeOrder(t, w)
	assert.Equal(t, model.StatusExported, o.Status)
	assert.NotEmpty(t, o.UnsignedDocumentRef)

	// bajar el formulario exportado
	w = do(t, r, dept7, http.MethodGet, "/orders/"+orderID+"/document/unsigned", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	w = uploadSigned(t, r, dept7, orderID, []byte("%PDF-1.4\nfirmado"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	o = decodeOrder(t, w)
	assert.Equal(t, model.StatusUploaded, o.Status)
	assert.NotEmpty(t, o.SignedDocumentRef)

	w = do(t, r, dept7, http.MethodPost, "/orders/"+orderID+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusSubmitted, decodeOrder(t, w).Status)

	// los admins tienen exactamente una notificación de envío, media
	w = do(t, r, admin1, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var adminNotes []model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &adminNotes))
	submitted := 0
	for _, n := range adminNotes {
		if n.RecipientScope == model.RecipientAdmins {
			submitted++
			assert.Equal(t, model.PriorityMedium, n.Priority)
		}
	}
	assert.Equal(t, 1, submitted)

	w = do(t, r, admin1, http.MethodPost, "/admin/orders/"+orderID+"/reject", gin.H{"comment": "falta la hoja de firmas"})
	require.Equal(t, http.StatusOK, w.Code)
	o = decodeOrder(t, w)
	assert.Equal(t, model.StatusRejected, o.Status)
	assert.Equal(t, "falta la hoja de firmas", o.AdminComment)

	// el departamento recibe el rechazo con el comentario
	w = do(t, r, dept7, http.MethodGet, "/notifications", nil)
	var deptNotes []model.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &deptNotes))
	found := false
	for _, n := range deptNotes {
		if n.Metadata["to"] == string(model.StatusRejected) {
			found = true
			assert.Equal(t, model.PriorityHigh, n.Priority)
			assert.Contains(t, n.Message, "falta la hoja de firmas")
		}
	}
	assert.True(t, found)
}

func TestRejectWithoutComment(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, dept7, http.MethodPost, "/orders", createBody(1))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decodeOrder(t, w).OrderID

	w = do(t, r, admin1, http.MethodPost, "/admin/orders/"+orderID+"/reject", gin.H{"comment": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_payload", errKindOf(t, w))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	r := newTestRouterMax(t, 32)

	w := do(t, r, dept7, http.MethodPost, "/orders", createBody(1))
	orderID := decodeOrder(t, w).OrderID
	w = do(t, r, dept7, http.MethodPost, "/orders/"+orderID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)

	big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 128)...)
	w = uploadSigned(t, r, dept7, orderID, big)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_payload", errKindOf(t, w))

	// el pedido sigue exported: el rechazo no deja efecto parcial
	w = do(t, r, dept7, http.MethodGet, "/orders/"+orderID, nil)
	assert.Equal(t, model.StatusExported, decodeOrder(t, w).Status)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, dept7, http.MethodPost, "/orders", createBody(1))
	orderID := decodeOrder(t, w).OrderID
	w = do(t, r, dept7, http.MethodPost, "/orders/"+orderID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = uploadSigned(t, r, dept7, orderID, []byte("no soy un pdf"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_payload", errKindOf(t, w))
}

func TestForeignOrderIsHidden(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, dept7, http.MethodPost, "/orders", createBody(1))
	orderID := decodeOrder(t, w).OrderID

	other := caller{user: "u-2", dept: "dep-9"}
	w = do(t, r, other, http.MethodGet, "/orders/"+orderID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, other, http.MethodGet, "/orders/mine", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []dto.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Empty(t, mine)
}

func TestAdminListings(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, dept7, http.MethodPost, "/orders", createBody(1))
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, admin1, http.MethodGet, "/admin/orders/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []dto.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	w = do(t, r, admin1, http.MethodGet, "/admin/orders/state/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, admin1, http.MethodGet, "/admin/orders/state/Pendiente", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
