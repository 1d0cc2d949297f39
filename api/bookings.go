package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/fbtrip/skyfare/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookRequest struct {
	FlightID      int64  `json:"flight_id" binding:"required"`
	PassengerName string `json:"passenger_name" binding:"required"`
	PassengerAge  int    `json:"passenger_age" binding:"required,gt=0"`
}

type bookResponse struct {
	BookingID        int64  `json:"booking_id"`
	TicketReference  string `json:"ticket_reference"`
	TicketURL        string `json:"ticket_url"`
	Price            int64  `json:"price"`
	SurgeApplied     bool   `json:"surge_applied"`
	NewWalletBalance int64  `json:"new_wallet_balance"`
}

type userBookingResponse struct {
	BookingID     int64           `json:"booking_id"`
	TicketRef     string          `json:"ticket_reference"`
	PassengerName string          `json:"passenger_name"`
	PassengerAge  int             `json:"passenger_age"`
	Price         int64           `json:"price"`
	SurgeApplied  bool            `json:"surge_applied"`
	BookedAt      time.Time       `json:"booked_at"`
	Airline       string          `json:"airline"`
	FlightNumber  string          `json:"flight_number"`
	From          domain.Location `json:"from"`
	To            domain.Location `json:"to"`
	DepartureTime time.Time       `json:"departure_time"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.book)
	router.GET("/user/:userId", h.listUserBookings)
}

func (h *BookingHandler) book(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": CodeInvalidCredentials, "message": "not authenticated"})
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.service.Book(c.Request.Context(), booking.BookInput{
		UserID:        userID,
		FlightID:      req.FlightID,
		PassengerName: req.PassengerName,
		PassengerAge:  req.PassengerAge,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bookResponse{
		BookingID:        result.Booking.ID,
		TicketReference:  result.Booking.TicketRef,
		TicketURL:        result.TicketURL,
		Price:            result.Booking.Price,
		SurgeApplied:     result.Booking.SurgeApplied,
		NewWalletBalance: result.NewBalance,
	})
}

func (h *BookingHandler) listUserBookings(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeBadRequest, "message": "invalid user id"})
		return
	}

	bookings, err := h.service.ListUserBookings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]userBookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, userBookingResponse{
			BookingID:     b.ID,
			TicketRef:     b.TicketRef,
			PassengerName: b.PassengerName,
			PassengerAge:  b.PassengerAge,
			Price:         b.Price,
			SurgeApplied:  b.SurgeApplied,
			BookedAt:      b.BookedAt,
			Airline:       b.Airline,
			FlightNumber:  b.FlightNumber,
			From:          b.From,
			To:            b.To,
			DepartureTime: b.DepartureTime,
		})
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}
