package handlers

import (
	"net/http"

	"lexconnect/middleware"
	"lexconnect/models"
	"lexconnect/services/lawyer"
	"lexconnect/services/matching"

	"github.com/gin-gonic/gin"
)

type LawyerHandler struct {
	Service lawyer.LawyerService
	Engine  matching.Engine
}

func (h *LawyerHandler) Register(c *gin.Context) {
	var req models.LawyerRegistration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Service.Register(c.Request.Context(), req, middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LawyerHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Service.Login(c.Request.Context(), req.Email, req.Password, middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LawyerHandler) Logout(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), accountID(c), middleware.RequestMeta(c)); err != nil {
		respondError(c, err, "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *LawyerHandler) ChangePassword(c *gin.Context) {
	var req passwordChange
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.Service.ChangePassword(c.Request.Context(), accountID(c), req.CurrentPassword, req.NewPassword, middleware.RequestMeta(c))
	if err != nil {
		respondError(c, err, "Failed to change password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated, please sign in again"})
}

func (h *LawyerHandler) ForgotPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Failed to start password reset")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "If the account exists, a reset code was sent"})
}

func (h *LawyerHandler) ResetPassword(c *gin.Context) {
	var req resetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.Service.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword, middleware.RequestMeta(c)); err != nil {
		respondError(c, err, "Password reset failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset, please sign in"})
}

func (h *LawyerHandler) GetProfile(c *gin.Context) {
	l, err := h.Service.GetProfile(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *LawyerHandler) UpdateProfile(c *gin.Context) {
	var upd models.LawyerUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.Service.UpdateProfile(c.Request.Context(), accountID(c), upd)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, l)
}

// SetAvailability handles PUT /api/lawyers/me/availability.
func (h *LawyerHandler) SetAvailability(c *gin.Context) {
	var req struct {
		AcceptingCases *bool `json:"acceptingCases" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.Service.SetAcceptingCases(c.Request.Context(), accountID(c), *req.AcceptingCases)
	if err != nil {
		respondError(c, err, "Failed to update availability")
		return
	}
	c.JSON(http.StatusOK, l)
}

// UploadVerification handles multipart POST /api/lawyers/me/verification
// with fields "kind" and "file".
func (h *LawyerHandler) UploadVerification(c *gin.Context) {
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

	doc, err := h.Service.UploadVerificationDocument(c.Request.Context(), accountID(c), c.PostForm("kind"), header.Filename, header.Size, f)
	if err != nil {
		respondError(c, err, "Failed to upload document")
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *LawyerHandler) ListMatches(c *gin.Context) {
	limit, skip := page(c)
	views, err := h.Service.ListMatches(c.Request.Context(), accountID(c), c.Query("status"), limit, skip)
	if err != nil {
		respondError(c, err, "Failed to list matches")
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *LawyerHandler) LeadUsage(c *gin.Context) {
	usage, err := h.Service.LeadUsage(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err, "Failed to load lead usage")
		return
	}
	c.JSON(http.StatusOK, usage)
}

// AcceptMatch handles POST /api/lawyers/me/matches/:id/accept.
func (h *LawyerHandler) AcceptMatch(c *gin.Context) {
	m, err := h.Engine.Accept(c.Request.Context(), c.Param("id"), accountID(c))
	if err != nil {
		respondError(c, err, "Failed to accept case")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *LawyerHandler) RejectMatch(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	// The body is optional.
	_ = c.ShouldBindJSON(&req)
	if err := h.Engine.Reject(c.Request.Context(), c.Param("id"), accountID(c), req.Reason); err != nil {
		respondError(c, err, "Failed to reject case")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Case declined"})
}

// WithdrawCase handles POST /api/cases/:id/withdraw by the assigned lawyer.
func (h *LawyerHandler) WithdrawCase(c *gin.Context) {
	if err := h.Engine.Withdraw(c.Request.Context(), c.Param("id"), accountID(c)); err != nil {
		respondError(c, err, "Failed to withdraw from case")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Withdrawn, the case will be offered to other lawyers"})
}
