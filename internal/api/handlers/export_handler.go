package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaydeesquared/FlagIt/internal/export"
	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/services"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type ExportHandler struct {
	recordings services.RecordingService
	exporter   *export.Exporter
}

func NewExportHandler(recordings services.RecordingService, exporter *export.Exporter) *ExportHandler {
	return &ExportHandler{recordings: recordings, exporter: exporter}
}

type ExportRequest struct {
	RecordingIDs []uint `json:"recording_ids"`
	IncludeNotes bool   `json:"include_notes"`
}

// Batch exports the selected recordings (or every recording when the list
// is empty) as a zip archive grouped by category.
func (h *ExportHandler) Batch(c *gin.Context) {
	const op = "ExportHandler.Batch"

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	items, err := h.collectItems(c, req.RecordingIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(items) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "nothing to export", nil))
		return
	}

	res, err := h.exporter.ExportBatch(c.Request.Context(), items, req.IncludeNotes)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	if len(res.Missing) > 0 {
		c.Header("X-Export-Missing", joinIDs(res.Missing))
	}
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

// One exports a single recording as MP3.
func (h *ExportHandler) One(c *gin.Context) {
	const op = "ExportHandler.One"

	id, ok := uintParam(c, "id", op)
	if !ok {
		return
	}

	rec, err := h.recordings.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	res, _, err := h.exporter.ExportOne(c.Request.Context(), itemFromRecording(rec), false)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

func (h *ExportHandler) collectItems(c *gin.Context, ids []uint) ([]export.Item, error) {
	ctx := c.Request.Context()

	if len(ids) == 0 {
		rows, err := h.recordings.List(ctx)
		if err != nil {
			return nil, err
		}
		items := make([]export.Item, 0, len(rows))
		for _, r := range rows {
			items = append(items, export.Item{
				ID:         r.ID,
				Name:       r.Name,
				Category:   r.Category,
				Notes:      r.Notes,
				DurationMS: r.DurationMS,
				CreatedAt:  r.CreatedAt,
			})
		}
		return items, nil
	}

	items := make([]export.Item, 0, len(ids))
	for _, id := range ids {
		rec, err := h.recordings.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, itemFromRecording(rec))
	}
	return items, nil
}

func itemFromRecording(rec *models.RecordingWithFlags) export.Item {
	return export.Item{
		ID:         rec.ID,
		Name:       rec.Name,
		Category:   rec.Category,
		Notes:      rec.Notes,
		DurationMS: rec.DurationMS,
		CreatedAt:  rec.CreatedAt,
	}
}

func joinIDs(ids []uint) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += strconv.FormatUint(uint64(id), 10)
	}
	return out
}
