package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yatra/internal/models"
)

// ListTrips - GET /api/trips
// Получить список поездок с поиском и фильтрами
func (h *Handlers) ListTrips(c *gin.Context) {
	var params models.ListTripsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.trips.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list trips")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetTrip - GET /api/trips/:id
// Получить поездку
func (h *Handlers) GetTrip(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	trip, err := h.trips.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get trip")
		return
	}

	c.JSON(http.StatusOK, trip)
}

// CreateTrip - POST /api/admin/trips
// Создать поездку
func (h *Handlers) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.trips.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create trip")
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// UpdateTripCapacity - PATCH /api/admin/trips/:id/capacity
// Изменить вместимость поездки; при уменьшении ниже числа проданных мест ответ содержит предупреждение
func (h *Handlers) UpdateTripCapacity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.trips.EditCapacity(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update capacity")
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateTripStatus - PATCH /api/admin/trips/:id/status
// Перевести поездку в другой статус
func (h *Handlers) UpdateTripStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateTripStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.trips.UpdateStatus(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update trip status")
		return
	}

	c.JSON(http.StatusOK, trip)
}

// ListTripBookings - GET /api/admin/trips/:id/bookings
// Получить бронирования поездки
func (h *Handlers) ListTripBookings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	bookings, err := h.bookings.ListByTrip(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to list bookings")
		return
	}

	c.JSON(http.StatusOK, bookings)
}
