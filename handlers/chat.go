package handlers

import (
	"net/http"
	"strconv"
	"time"

	messageRepo "lexconnect/database/repository/message"
	"lexconnect/middleware"
	"lexconnect/models"
	"lexconnect/services/chat"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	Service chat.ChatService
}

func participant(c *gin.Context) chat.Participant {
	id, role := middleware.AccountID(c)
	return chat.Participant{ID: id, Role: role}
}

func (h *ChatHandler) Send(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.Service.Send(c.Request.Context(), participant(c), c.Param("id"), req.Body)
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) SendFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, err)
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()
	msg, err := h.Service.SendFile(c.Request.Context(), participant(c), c.Param("id"), header.Filename, header.Size, f)
	if err != nil {
		respondError(c, err, "Failed to send file")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Poll handles GET /api/cases/:id/messages?since=RFC3339&after=<id>&limit=N.
// Clients pass the createdAt and id of the last message they hold.
func (h *ChatHandler) Poll(c *gin.Context) {
	cur := messageRepo.Cursor{AfterID: c.Query("after")}
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		cur.Since = t
	}
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	msgs, err := h.Service.Poll(c.Request.Context(), participant(c), c.Param("id"), cur, limit)
	if err != nil {
		respondError(c, err, "Failed to load messages")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	n, err := h.Service.MarkRead(c.Request.Context(), participant(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to mark messages read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

func (h *ChatHandler) Unread(c *gin.Context) {
	n, err := h.Service.UnreadCount(c.Request.Context(), participant(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to count unread messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
