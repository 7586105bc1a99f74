package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Tesudeix/Yuki/internal/api"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      List locations
// @Tags         catalog
// @Produce      json
// @Success      200 {array} catalog.Location
// @Failure      503 {object} api.ErrorResponse
// @Router       /locations [get]
func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.service.ListLocations(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, locations)
}

// @Summary      List resources
// @Description  Active resources, optionally only those serving one location
// @Tags         catalog
// @Produce      json
// @Param        locationId query string false "Location ID"
// @Success      200 {array} catalog.Resource
// @Failure      400 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /resources [get]
func (h *Handler) ListResources(c *gin.Context) {
	var locationID *uuid.UUID
	if raw := c.Query("locationId"); raw != "" {
		id, err := api.ParseID("locationId", raw)
		if err != nil {
			api.RespondError(c, err)
			return
		}
		locationID = &id
	}

	resources, err := h.service.ListResources(c.Request.Context(), locationID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resources)
}

// @Summary      Create a location
// @Description  Admin-only
// @Tags         admin,catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body catalog.CreateLocationRequest true "Location payload"
// @Success      201 {object} catalog.Location
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/locations [post]
func (h *Handler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	loc, err := h.service.CreateLocation(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loc)
}

// @Summary      Create a resource
// @Description  Admin-only: create an artist and attach it to locations
// @Tags         admin,catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body catalog.CreateResourceRequest true "Resource payload"
// @Success      201 {object} catalog.Resource
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/resources [post]
func (h *Handler) CreateResource(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	res, err := h.service.CreateResource(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}
