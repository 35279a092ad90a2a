package controller

import (
	"net/http"

	"order-workflow-service/internal/notification"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Dispatcher *notification.Dispatcher
}

func NewNotificationController(d *notification.Dispatcher) *NotificationController {
	return &NotificationController{Dispatcher: d}
}

func scopesFrom(c *gin.Context) []string {
	return notification.ScopesFor(c.GetString("userID"), c.GetString("departmentID"), c.GetBool("isAdmin"))
}

// GET /notifications
func (ctl *NotificationController) List(c *gin.Context) {
	notes, err := ctl.Dispatcher.List(c.Request.Context(), scopesFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// POST /notifications/:id/read
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	if err := ctl.Dispatcher.MarkRead(c.Request.Context(), c.Param("id"), scopesFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification read"})
}

// POST /notifications/read-all
func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	if err := ctl.Dispatcher.MarkAllRead(c.Request.Context(), scopesFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications read"})
}
