package availability

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Get availability
// @Description  Slots per day for a resource at a location. days is clamped to [1,30], default 7; fromDate defaults to today.
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        resourceId query string true  "Resource ID"
// @Param        locationId query string true  "Location ID"
// @Param        fromDate   query string false "First day, YYYY-MM-DD"
// @Param        days       query int    false "Number of days"
// @Success      200 {object} availability.View
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /availability [get]
func (h *Handler) GetAvailability(c *gin.Context) {
	q := Query{
		ResourceID: c.Query("resourceId"),
		LocationID: c.Query("locationId"),
		FromDate:   c.Query("fromDate"),
	}

	if raw, ok := c.GetQuery("days"); ok {
		days, err := strconv.Atoi(raw)
		if err != nil {
			api.RespondError(c, apperr.InvalidInput("days must be an integer"))
			return
		}
		q.Days = &days
	}

	view, err := h.service.GetAvailability(c.Request.Context(), q)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary      Seed availability
// @Description  Admin-only: create a day for a resource at a location, or append times to it. Never releases reserved slots.
// @Tags         admin,availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body availability.SeedRequest true "Day and times"
// @Success      200 {object} availability.SeedResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/availability [post]
func (h *Handler) SeedDay(c *gin.Context) {
	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	record, added, err := h.service.SeedDay(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SeedResponse{Record: *record, Added: added})
}
