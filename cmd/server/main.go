package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"order-workflow-service/internal/config"
	"order-workflow-service/internal/controller"
	"order-workflow-service/internal/document"
	"order-workflow-service/internal/dto"
	"order-workflow-service/internal/metrics"
	"order-workflow-service/internal/middleware"
	"order-workflow-service/internal/notification"
	"order-workflow-service/internal/rabbit"
	"order-workflow-service/internal/repository"
	"order-workflow-service/internal/service"
	"order-workflow-service/internal/window"
)

func main() {
	// .env opcional para desarrollo local
	_ = godotenv.Load()
	cfg := config.Load()

	// Conexión a MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	db := client.Database(cfg.MongoDBName)

	// Repositorios y file store
	orderRepo := repository.NewMongoOrderRepository(db)
	noteRepo := repository.NewMongoNotificationRepository(db)
	fileStore, err := repository.NewGridFSFileStore(db)
	if err != nil {
		log.Fatal(err)
	}

	// Ventana de pedidos
	gate := window.NewGate(cfg.WindowDefaultOpen)

	// Servicios
	authService := service.NewAuthService(cfg.AuthURL)
	catalogService := service.NewCatalogService(cfg.CatalogURL)
	workflow := service.NewOrderWorkflowService(orderRepo, gate, catalogService)
	exchange := document.NewExchange(workflow, fileStore, cfg.MaxUploadBytes)

	// Conexión a RabbitMQ
	conn, err := amqp091.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("Error conectando a RabbitMQ: %v", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("Error creando canal en RabbitMQ: %v", err)
	}

	publisher, err := rabbit.NewPublisher(ch)
	if err != nil {
		log.Fatalf("Error declarando exchanges en RabbitMQ: %v", err)
	}

	// Fan-out de notificaciones y broadcast de la ventana
	dispatcher := notification.NewDispatcher(noteRepo, publisher)
	workflow.OnTransition(dispatcher.HandleTransition)
	gate.OnChange(publisher.PublishWindowChange)

	// Toggles programados desde el scheduler externo
	rabbit.SetupConsumers(ch, gate)

	// Handlers
	ctrl := controller.NewOrderController(workflow, exchange, gate)
	noteCtrl := controller.NewNotificationController(dispatcher)

	// Router
	dto.RegisterValidations()
	r := gin.Default()

	m := metrics.NewServerMetrics("order_workflow")
	r.Use(m.Middleware())

	// Rutas públicas
	r.GET("/window", ctrl.CheckWindow)
	r.GET("/metrics", metrics.Handler())

	// Rutas protegidas (requieren token)
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(authService))

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

	// Rutas admin
	admin := auth.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.POST("/orders/:orderId/approve", ctrl.ApproveOrder)
	admin.POST("/orders/:orderId/reject", ctrl.RejectOrder)
	admin.GET("/orders/all", ctrl.GetAllOrders)
	admin.GET("/orders/state/:state", ctrl.GetAllOrdersByState)
	admin.PUT("/window", ctrl.ToggleWindow)

	// Ejecutar servidor
	log.Printf("Order Workflow Service ejecutándose en puerto %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
