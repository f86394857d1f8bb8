package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaydeesquared/FlagIt/internal/services"
	"github.com/jaydeesquared/FlagIt/internal/utils"
)

type SnippetHandler struct {
	svc services.SnippetService
}

func NewSnippetHandler(svc services.SnippetService) *SnippetHandler {
	return &SnippetHandler{svc: svc}
}

type CreateSnippetRequest struct {
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Name       string  `json:"name"`
	CategoryID *uint   `json:"category_id"`
}

func (h *SnippetHandler) Create(c *gin.Context) {
	const op = "SnippetHandler.Create"

	sourceID, ok := uintParam(c, "id", op)
	if !ok {
		return
	}

	var req CreateSnippetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	rec, err := h.svc.CreateSnippet(c.Request.Context(), sourceID, req.StartSec, req.EndSec, req.Name, req.CategoryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
