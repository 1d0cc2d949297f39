package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/fbtrip/skyfare/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type AirportTokenSource interface {
	Token(ctx context.Context) (string, error)
}

type FlightHandler struct {
	service flights.FlightUseCase
	airport AirportTokenSource
}

type flightResponse struct {
	ID              int64           `json:"id"`
	Airline         string          `json:"airline"`
	FlightNumber    string          `json:"flight_number"`
	From            domain.Location `json:"from"`
	To              domain.Location `json:"to"`
	DepartureTime   time.Time       `json:"departure_time"`
	ArrivalTime     time.Time       `json:"arrival_time"`
	DurationMinutes int             `json:"duration_minutes"`
	TotalSeats      int             `json:"total_seats"`
	AvailableSeats  int             `json:"available_seats"`
	BasePrice       int64           `json:"base_price"`
	CurrentPrice    int64           `json:"current_price"`
}

func NewFlightHandler(service flights.FlightUseCase, airport AirportTokenSource) *FlightHandler {
	return &FlightHandler{service: service, airport: airport}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.GET("/:id", h.get)
	router.GET("/airport-token", h.airportToken)
}

func (h *FlightHandler) search(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")

	found, err := h.service.Search(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]flightResponse, 0, len(found))
	for i := range found {
		out = append(out, toFlightResponse(&found[i]))
	}
	c.JSON(http.StatusOK, gin.H{"flights": out})
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": CodeBadRequest, "message": "invalid flight id"})
		return
	}

	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(flight))
}

func (h *FlightHandler) airportToken(c *gin.Context) {
	if h.airport == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": CodeNotFound, "message": "airport lookup not configured"})
		return
	}
	token, err := h.airport.Token(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token})
}

func toFlightResponse(f *domain.Flight) flightResponse {
	return flightResponse{
		ID:              f.ID,
		Airline:         f.Airline,
		FlightNumber:    f.FlightNumber,
		From:            f.From,
		To:              f.To,
		DepartureTime:   f.DepartureTime,
		ArrivalTime:     f.ArrivalTime,
		DurationMinutes: f.DurationMinutes,
		TotalSeats:      f.TotalSeats,
		AvailableSeats:  f.AvailableSeats,
		BasePrice:       f.BasePrice,
		CurrentPrice:    f.CurrentPrice,
	}
}
