package ginserver

import (
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"quickhost/internal/app/commands"
	"quickhost/internal/app/dto"
	bookingapp "quickhost/internal/app/handlers/bookings"
	"quickhost/internal/app/queries"
	"quickhost/internal/domain/shared/apperr"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	ListingID string  `json:"accommodation"`
	CheckIn   string  `json:"check_in_date"`
	CheckOut  string  `json:"check_out_date"`
	Price     *amount `json:"price"`
}

type updateBookingRequest struct {
	ListingID *string `json:"accommodation"`
	UserID    *string `json:"user"`
	CheckIn   *string `json:"check_in_date"`
	CheckOut  *string `json:"check_out_date"`
	Price     *amount `json:"price"`
	IsActive  *bool   `json:"is_active"`
}

func (h BookingHandler) List(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries bus")
		return
	}
	query := bookingapp.ListUserBookingsQuery{CallerID: caller, UserID: c.Query("user")}
	result, err := queries.Ask[bookingapp.ListUserBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rate, err := req.Price.parse()
	if err != nil {
		respondWithError(c, h.Logger, apperr.Field("price", err))
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		UserID:          user,
		ListingID:       req.ListingID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	if rate != nil {
		cmd.NightlyRate = *rate
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/bookings/%s", result.ID))
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Queries == nil {
		unavailable(c, "queries bus")
		return
	}
	query := bookingapp.GetBookingQuery{CallerID: caller, BookingID: c.Param("id")}
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Update(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rate, err := req.Price.parse()
	if err != nil {
		respondWithError(c, h.Logger, apperr.Field("price", err))
		return
	}
	cmd := bookingapp.UpdateBookingCommand{
		CallerID:    caller,
		BookingID:   c.Param("id"),
		ListingID:   req.ListingID,
		UserID:      req.UserID,
		CheckIn:     req.CheckIn,
		CheckOut:    req.CheckOut,
		NightlyRate: rate,
		Active:      req.IsActive,
	}
	result, err := commands.Dispatch[bookingapp.UpdateBookingCommand, dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Delete(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	if h.Commands == nil {
		unavailable(c, "commands bus")
		return
	}
	cmd := bookingapp.DeleteBookingCommand{CallerID: caller, BookingID: c.Param("id")}
	if _, err := commands.Dispatch[bookingapp.DeleteBookingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ BookingHTTP = BookingHandler{}
