package handler

import (
	"net/http"
	"strconv"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/middleware"
	"tillpoint/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EntryHandler struct{ svc service.EntryService }

func NewEntryHandler(svc service.EntryService) *EntryHandler { return &EntryHandler{svc: svc} }

// Create godoc
// @Summary Records a machine cash entry and reconciles it against the previous one
// @Tags entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param body body dto.CreateEntryRequest true "Meter readings and counted cash"
// @Success 201 {object} dto.EntryResponse
// @Failure 404 {object} apierror.NotFoundError
// @Failure 409 {object} apierror.ConflictError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/periods/{id}/entries [post]
func (h *EntryHandler) Create(c *gin.Context) {
	periodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CreateEntryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Create(c.Request.Context(), userID, periodID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListByPeriod returns every entry recorded against a period, oldest first.
func (h *EntryHandler) ListByPeriod(c *gin.Context) {
	periodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ListByPeriod(c.Request.Context(), periodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListByMachine returns a machine's entry history across periods.
func (h *EntryHandler) ListByMachine(c *gin.Context) {
	machineID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, err := h.svc.ListByMachine(c.Request.Context(), machineID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
