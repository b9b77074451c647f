package handlers

import (
	"net/http"

	"lexconnect/middleware"
	"lexconnect/models"
	"lexconnect/services/citizen"

	"github.com/gin-gonic/gin"
)

type CitizenHandler struct {
	Service citizen.CitizenService
}

// Register handles POST /api/citizens/register.
func (h *CitizenHandler) Register(c *gin.Context) {
	var req models.CitizenRegistration
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

func (h *CitizenHandler) Login(c *gin.Context) {
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

func (h *CitizenHandler) Logout(c *gin.Context) {
	if err := h.Service.Logout(c.Request.Context(), accountID(c), middleware.RequestMeta(c)); err != nil {
		respondError(c, err, "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *CitizenHandler) GetProfile(c *gin.Context) {
	profile, err := h.Service.GetProfile(c.Request.Context(), accountID(c))
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *CitizenHandler) UpdateProfile(c *gin.Context) {
	var upd models.CitizenUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.Service.UpdateProfile(c.Request.Context(), accountID(c), upd)
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *CitizenHandler) ChangePassword(c *gin.Context) {
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

// ForgotPassword always answers 202 so callers cannot probe for accounts.
func (h *CitizenHandler) ForgotPassword(c *gin.Context) {
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

func (h *CitizenHandler) ResetPassword(c *gin.Context) {
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
