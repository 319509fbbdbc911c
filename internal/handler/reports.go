package handler

import (
	"net/http"
	"time"

	"tillpoint/internal/apierror"
	"tillpoint/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReportHandler struct{ svc service.ReportService }

func NewReportHandler(svc service.ReportService) *ReportHandler { return &ReportHandler{svc: svc} }

// Daily godoc
// @Summary Per business+date variance and payout roll-up
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param business_id query string true "Business ID"
// @Param date query string true "Business date (YYYY-MM-DD)"
// @Success 200 {object} dto.DailyReportResponse
// @Failure 404 {object} apierror.NotFoundError
// @Router /v1/reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	businessID, err := uuid.Parse(c.Query("business_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("business_id query parameter required"))
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("date query parameter must be YYYY-MM-DD"))
		return
	}
	resp, err := h.svc.Daily(c.Request.Context(), businessID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
