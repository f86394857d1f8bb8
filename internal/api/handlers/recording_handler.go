package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/services"
	"github.com/jaydeesquared/FlagIt/internal/transcode"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

const maxAudioUploadBytes = 100 << 20

type RecordingHandler struct {
	svc       services.RecordingService
	converter *transcode.Transcoder
}

func NewRecordingHandler(svc services.RecordingService, converter *transcode.Transcoder) *RecordingHandler {
	return &RecordingHandler{svc: svc, converter: converter}
}

type CreateRecordingRequest struct {
	Name       string `json:"name" binding:"required"`
	Category   string `json:"category"`
	CategoryID *uint  `json:"category_id"`
	DurationMS int64  `json:"duration"`
	Notes      string `json:"notes"`
}

func (h *RecordingHandler) Create(c *gin.Context) {
	var req CreateRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RecordingHandler.Create", "invalid request body", err))
		return
	}

	rec, err := h.svc.Create(c.Request.Context(), req.Name, req.Category, req.CategoryID, req.DurationMS, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *RecordingHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id", "RecordingHandler.Get")
	if !ok {
		return
	}

	rec, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *RecordingHandler) List(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		rows, err := h.svc.ListByCategory(c.Request.Context(), category)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"recordings": rows})
		return
	}

	rows, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordings": rows})
}

type UpdateRecordingRequest struct {
	Name       *string `json:"name"`
	Category   *string `json:"category"`
	CategoryID *uint   `json:"category_id"`
	Notes      *string `json:"notes"`
}

func (h *RecordingHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id", "RecordingHandler.Update")
	if !ok {
		return
	}

	var req UpdateRecordingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RecordingHandler.Update", "invalid request body", err))
		return
	}

	rec, err := h.svc.Update(c.Request.Context(), id, req.Name, req.Category, req.CategoryID, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *RecordingHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id", "RecordingHandler.Delete")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadAudio stores the raw request body as the recording's audio. The
// Content-Type header carries the container format.
func (h *RecordingHandler) UploadAudio(c *gin.Context) {
	const op = "RecordingHandler.UploadAudio"

	id, ok := uintParam(c, "id", op)
	if !ok {
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioUploadBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio body", err))
		return
	}
	if len(data) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "empty audio body", nil))
		return
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = audio.MIMEWebM
	}

	if err := h.svc.SaveAudio(c.Request.Context(), id, audio.Blob{Data: data, ContentType: contentType}); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadAudio serves the stored blob. ?format=mp3 transcodes on the way
// out; stored MP3 passes through untouched.
func (h *RecordingHandler) DownloadAudio(c *gin.Context) {
	const op = "RecordingHandler.DownloadAudio"

	id, ok := uintParam(c, "id", op)
	if !ok {
		return
	}

	blob, err := h.svc.LoadAudio(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("format") == "mp3" {
		converted, cerr := h.converter.Convert(c.Request.Context(), blob)
		if cerr != nil {
			writeError(c, cerr)
			return
		}
		blob = converted
	}

	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}
