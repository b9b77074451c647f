package handlers

import (
	"net/http"

	"lexconnect/services/notification"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Service notification.NotificationService
}

// List handles GET /api/notifications?unread=true.
func (h *NotificationHandler) List(c *gin.Context) {
	limit, skip := page(c)
	list, err := h.Service.List(c.Request.Context(), accountID(c), c.Query("unread") == "true", limit, skip)
	if err != nil {
		respondError(c, err, "Failed to list notifications")
		return
	}
	unread, err := h.Service.UnreadCount(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.Service.MarkRead(c.Request.Context(), accountID(c), c.Param("id")); err != nil {
		respondError(c, err, "Failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.Service.MarkAllRead(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err, "Failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}
