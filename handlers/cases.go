package handlers

import (
	"fmt"
	"io"
	"net/http"

	"lexconnect/middleware"
	"lexconnect/models"
	"lexconnect/services/cases"
	"lexconnect/services/transcription"
	"lexconnect/utils"

	"github.com/gin-gonic/gin"
)

type CaseHandler struct {
	Service cases.CaseService
}

func viewer(c *gin.Context) cases.Viewer {
	id, role := middleware.AccountID(c)
	return cases.Viewer{ID: id, Role: role}
}

// Create handles POST /api/cases.
func (h *CaseHandler) Create(c *gin.Context) {
	var req models.CaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cs, err := h.Service.Create(c.Request.Context(), accountID(c), req)
	if err != nil {
		respondError(c, err, "Failed to create case")
		return
	}
	c.JSON(http.StatusCreated, cs)
}

// List returns the caller's own cases: filed ones for citizens, assigned
// ones for lawyers.
func (h *CaseHandler) List(c *gin.Context) {
	id, role := middleware.AccountID(c)
	var (
		list []models.Case
		err  error
	)
	if role == utils.RoleLawyer {
		list, err = h.Service.ListForLawyer(c.Request.Context(), id, c.Query("status"))
	} else {
		list, err = h.Service.ListForCitizen(c.Request.Context(), id, c.Query("status"))
	}
	if err != nil {
		respondError(c, err, "Failed to list cases")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CaseHandler) Get(c *gin.Context) {
	detail, err := h.Service.Get(c.Request.Context(), viewer(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load case")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *CaseHandler) Cancel(c *gin.Context) {
	cs, err := h.Service.Cancel(c.Request.Context(), accountID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to cancel case")
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h *CaseHandler) Close(c *gin.Context) {
	var req struct {
		Rating *float64 `json:"rating"`
	}
	_ = c.ShouldBindJSON(&req)
	cs, err := h.Service.Close(c.Request.Context(), accountID(c), c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, err, "Failed to close case")
		return
	}
	c.JSON(http.StatusOK, cs)
}

// Attach handles multipart POST /api/cases/:id/attachments.
func (h *CaseHandler) Attach(c *gin.Context) {
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

	a, err := h.Service.Attach(c.Request.Context(), viewer(c), c.Param("id"), header.Filename, header.Size, f)
	if err != nil {
		respondError(c, err, "Failed to upload attachment")
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *CaseHandler) AttachmentURL(c *gin.Context) {
	url, err := h.Service.AttachmentURL(c.Request.Context(), viewer(c), c.Param("id"), c.Param("attachmentId"))
	if err != nil {
		respondError(c, err, "Failed to sign attachment link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(cases.AttachmentURLTTL.Seconds())})
}

// Voice handles multipart POST /api/cases/:id/voice with a WAV "audio"
// field and an optional BCP-47 "language".
func (h *CaseHandler) Voice(c *gin.Context) {
	header, err := c.FormFile("audio")
	if err != nil {
		badRequest(c, err)
		return
	}
	if header.Size > transcription.MaxFileSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "Recording too large",
			fmt.Sprintf("maximum size is %d bytes", transcription.MaxFileSize))
		return
	}
	f, err := header.Open()
	if err != nil {
		badRequest(c, err)
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(io.LimitReader(f, transcription.MaxFileSize+1))
	if err != nil {
		badRequest(c, err)
		return
	}

	cs, err := h.Service.AddVoiceDescription(c.Request.Context(), accountID(c), c.Param("id"), audio, c.PostForm("language"))
	if err != nil {
		respondError(c, err, "Failed to transcribe recording")
		return
	}
	c.JSON(http.StatusOK, cs)
}
