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

type PeriodHandler struct{ svc service.PeriodService }

func NewPeriodHandler(svc service.PeriodService) *PeriodHandler { return &PeriodHandler{svc: svc} }

// Open godoc
// @Summary Opens a new accounting period for a business day
// @Tags periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenPeriodRequest true "Opening totals"
// @Success 201 {object} dto.PeriodResponse
// @Failure 409 {object} apierror.ConflictError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/periods/open [post]
func (h *PeriodHandler) Open(c *gin.Context) {
	var req dto.OpenPeriodRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Open(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Closes an open period with final counted totals
// @Tags periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Period ID"
// @Param body body dto.ClosePeriodRequest true "Closing totals"
// @Success 200 {object} dto.PeriodResponse
// @Failure 404 {object} apierror.NotFoundError
// @Failure 409 {object} apierror.ConflictError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/periods/{id}/close [post]
func (h *PeriodHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.ClosePeriodRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Close(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetActive returns the currently open period for a business, 404 when none.
func (h *PeriodHandler) GetActive(c *gin.Context) {
	businessID, err := uuid.Parse(c.Query("business_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("business_id query parameter required"))
		return
	}
	resp, err := h.svc.GetActive(c.Request.Context(), businessID)
	if err != nil {
		respondError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("no active period"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one period with its net figures and attachments.
func (h *PeriodHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List returns a paginated period history for a business.
func (h *PeriodHandler) List(c *gin.Context) {
	businessID, err := uuid.Parse(c.Query("business_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("business_id query parameter required"))
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
	resp, err := h.svc.List(c.Request.Context(), businessID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
