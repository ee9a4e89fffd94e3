package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/services"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// GET /notifications
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	list, err := h.service.ListUnread(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, "[notification][list]", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkReadFor(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		writeError(c, "[notification][read]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.service.MarkAllRead(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, "[notification][readAll]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}
