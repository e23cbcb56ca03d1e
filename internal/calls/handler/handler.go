package handler

import (
	"net/http"

	"callops_backend/internal/calls/domain"
	"callops_backend/internal/calls/service"
	"callops_backend/internal/calls/transport"
	"callops_backend/platform/httpkit"
	"callops_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Place)
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
}

func (h *Handler) Place(c *gin.Context) {
	if httpkit.MustGetIdentity(c) == nil {
		return
	}

	var req transport.PlaceCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	record, err := h.svc.PlaceCall(c.Request.Context(), req.Phone, req.Lead())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToCallResponse(record))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	record, err := h.svc.GetCall(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToCallResponse(record))
}

func (h *Handler) List(c *gin.Context) {
	status := domain.CallStatus(c.Query("status"))
	if status == "" {
		httpkit.Error(c, http.StatusBadRequest, "status query parameter is required", nil)
		return
	}

	records, err := h.svc.ListCalls(c.Request.Context(), status)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, transport.ToCallResponses(records))
}
