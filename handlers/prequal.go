package handlers

import (
	"net/http"

	"lexconnect/models"
	"lexconnect/services/prequal"

	"github.com/gin-gonic/gin"
)

type PrequalHandler struct {
	Service prequal.PrequalService
}

// Message handles the anonymous POST /api/prequal/messages.
func (h *PrequalHandler) Message(c *gin.Context) {
	var req models.PrequalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := h.Service.Message(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Failed to process message")
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *PrequalHandler) Get(c *gin.Context) {
	session, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load session")
		return
	}
	c.JSON(http.StatusOK, session)
}
