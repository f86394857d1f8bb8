package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaydeesquared/FlagIt/internal/services"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type FlagHandler struct {
	svc services.FlagService
}

func NewFlagHandler(svc services.FlagService) *FlagHandler {
	return &FlagHandler{svc: svc}
}

type CreateFlagRequest struct {
	TimestampMS int64  `json:"timestamp"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

func (h *FlagHandler) Create(c *gin.Context) {
	recordingID, ok := uintParam(c, "id", "FlagHandler.Create")
	if !ok {
		return
	}

	var req CreateFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FlagHandler.Create", "invalid request body", err))
		return
	}

	flag, err := h.svc.Create(c.Request.Context(), recordingID, req.TimestampMS, req.Color, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flag)
}

func (h *FlagHandler) ListByRecording(c *gin.Context) {
	recordingID, ok := uintParam(c, "id", "FlagHandler.ListByRecording")
	if !ok {
		return
	}

	rows, err := h.svc.ListByRecording(c.Request.Context(), recordingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": rows})
}

type UpdateFlagRequest struct {
	TimestampMS *int64  `json:"timestamp"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
}

func (h *FlagHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "flag_id", "FlagHandler.Update")
	if !ok {
		return
	}

	var req UpdateFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "FlagHandler.Update", "invalid request body", err))
		return
	}

	flag, err := h.svc.Update(c.Request.Context(), id, req.TimestampMS, req.Color, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flag)
}

func (h *FlagHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "flag_id", "FlagHandler.Delete")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
