package handlers

import (
	"net/http"
	"time"

	lawyerRepo "lexconnect/database/repository/lawyer"
	securityLogRepo "lexconnect/database/repository/securitylog"
	"lexconnect/middleware"
	"lexconnect/services/admin"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	Service admin.AdminService
}

// ListLawyers handles GET /api/admin/lawyers?verification=pending&status=active.
func (h *AdminHandler) ListLawyers(c *gin.Context) {
	limit, skip := page(c)
	filter := lawyerRepo.LawyerFilter{Verification: c.Query("verification"), Status: c.Query("status")}
	list, err := h.Service.ListLawyers(c.Request.Context(), filter, limit, skip)
	if err != nil {
		respondError(c, err, "Failed to list lawyers")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) ListCitizens(c *gin.Context) {
	limit, skip := page(c)
	list, err := h.Service.ListCitizens(c.Request.Context(), c.Query("status"), limit, skip)
	if err != nil {
		respondError(c, err, "Failed to list citizens")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) VerifyLawyer(c *gin.Context) {
	l, err := h.Service.VerifyLawyer(c.Request.Context(), c.Param("id"), middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to verify lawyer")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *AdminHandler) RejectLawyer(c *gin.Context) {
	var req struct {
		Note string `json:"note" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.Service.RejectLawyer(c.Request.Context(), c.Param("id"), req.Note, middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to reject lawyer")
		return
	}
	c.JSON(http.StatusOK, l)
}

// SetSuspended handles PUT /api/admin/accounts/:role/:id/suspension.
func (h *AdminHandler) SetSuspended(c *gin.Context) {
	var req struct {
		Suspended *bool  `json:"suspended" binding:"required"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.Service.SetSuspended(c.Request.Context(), c.Param("role"), c.Param("id"), *req.Suspended, req.Reason, middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to update account status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"suspended": *req.Suspended})
}

func (h *AdminHandler) ListCases(c *gin.Context) {
	limit, skip := page(c)
	list, err := h.Service.ListCases(c.Request.Context(), c.Query("status"), limit, skip)
	if err != nil {
		respondError(c, err, "Failed to list cases")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AdminHandler) ForceRedistribute(c *gin.Context) {
	n, err := h.Service.ForceRedistribute(c.Request.Context(), c.Param("id"), middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to redistribute case")
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": n})
}

// SecurityLogs handles GET /api/admin/security-logs?actorId=&event=&since=RFC3339.
func (h *AdminHandler) SecurityLogs(c *gin.Context) {
	limit, skip := page(c)
	f := securityLogRepo.Filter{ActorID: c.Query("actorId"), Event: c.Query("event")}
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		f.Since = t
	}
	logs, err := h.Service.SecurityLogs(c.Request.Context(), f, limit, skip)
	if err != nil {
		respondError(c, err, "Failed to load security logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Legal handles the public GET /api/legal?role=citizen|lawyer.
func (h *AdminHandler) Legal(c *gin.Context) {
	if role := c.Query("role"); role != "" {
		c.JSON(http.StatusOK, h.Service.GetLegalSectionsFor(role))
		return
	}
	c.JSON(http.StatusOK, h.Service.GetLegalSections())
}
