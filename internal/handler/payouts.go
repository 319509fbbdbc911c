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

type PayoutHandler struct{ svc service.PayoutService }

func NewPayoutHandler(svc service.PayoutService) *PayoutHandler { return &PayoutHandler{svc: svc} }

// Create godoc
// @Summary Records a winner payout
// @Tags payouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreatePayoutRequest true "Payout details"
// @Success 201 {object} dto.PayoutResponse
// @Failure 404 {object} apierror.NotFoundError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/payouts [post]
func (h *PayoutHandler) Create(c *gin.Context) {
	var req dto.CreatePayoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	userID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PayoutHandler) Get(c *gin.Context) {
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

func (h *PayoutHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.UpdatePayoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Void marks a payout as voided; voided payouts are excluded from totals.
func (h *PayoutHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.Void(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PayoutHandler) ListByBusiness(c *gin.Context) {
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
	resp, err := h.svc.ListByBusiness(c.Request.Context(), businessID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
