package booking

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Tesudeix/Yuki/internal/api"
	"github.com/Tesudeix/Yuki/internal/apperr"
	"github.com/Tesudeix/Yuki/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Book godoc
// @Summary      Book a slot
// @Description  Atomically reserves a free slot and records a confirmed booking. A 409 means the slot was taken; re-fetch availability.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body booking.CreateBookingRequest true "Slot to book"
// @Success      201 {object} booking.CreateBookingResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) Book(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, apperr.New(apperr.KindUnauthenticated, "User not authenticated"))
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	resp, err := h.service.Book(c.Request.Context(), ownerID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateBookingResponse{Booking: *resp})
}

// ListMine godoc
// @Summary      My bookings
// @Description  Newest first, at most 20.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        limit query int false "Page size (1-20)"
// @Success      200 {object} booking.ListResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /bookings/mine [get]
func (h *Handler) ListMine(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		api.RespondError(c, apperr.New(apperr.KindUnauthenticated, "User not authenticated"))
		return
	}

	limit := DefaultPageSize
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			api.RespondError(c, apperr.InvalidInput("limit must be an integer"))
			return
		}
		limit = n
	}

	bookings, err := h.service.ListForOwner(c.Request.Context(), ownerID, limit)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Bookings: bookings})
}

// Consistency godoc
// @Summary      Ledger consistency check
// @Description  Admin-only: reserved slots without a confirmed booking and confirmed bookings without a reserved slot.
// @Tags         admin,bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} booking.ConsistencyReport
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/bookings/consistency [get]
func (h *Handler) Consistency(c *gin.Context) {
	report, err := h.service.CheckConsistency(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
