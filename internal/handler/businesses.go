package handler

import (
	"net/http"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BusinessHandler struct{ svc service.BusinessService }

func NewBusinessHandler(svc service.BusinessService) *BusinessHandler {
	return &BusinessHandler{svc: svc}
}

func (h *BusinessHandler) Create(c *gin.Context) {
	var req dto.CreateBusinessRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BusinessHandler) Get(c *gin.Context) {
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

func (h *BusinessHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list businesses"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddMachine registers a gaming machine under a business.
func (h *BusinessHandler) AddMachine(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CreateMachineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddMachine(c.Request.Context(), businessID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BusinessHandler) ListMachines(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.ListMachines(c.Request.Context(), businessID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BusinessHandler) DeactivateMachine(c *gin.Context) {
	id, err := uuid.Parse(c.Param("machine_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid machine_id"))
		return
	}
	if err := h.svc.DeactivateMachine(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
