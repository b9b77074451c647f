package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"lexconnect/database/repository"
	"lexconnect/middleware"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor extends utils.StatusFor with the repository sentinels that
// services pass through unwrapped.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	}
	return utils.StatusFor(err)
}

// respondError writes err with the status its kind maps to. Internal
// errors are logged in full and hidden from the client.
func respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		utils.GetLogger().Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		utils.JSONError(c, status, message, "")
		return
	}
	utils.JSONError(c, status, message, err.Error())
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
}

// page reads ?limit and ?skip.
func page(c *gin.Context) (int64, int64) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	skip, _ := strconv.ParseInt(c.Query("skip"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	return utils.ClampLimit(limit), skip
}

func accountID(c *gin.Context) string {
	id, _ := middleware.AccountID(c)
	return id
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirm struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}
