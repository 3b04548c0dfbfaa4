package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "yatra/internal/errors"
	"yatra/internal/logger"
	"yatra/internal/models"
)

// Payments handlers

// InitiatePayment - POST /api/bookings/:id/payments
// Инициировать платеж (аванс или полная оплата) через платежный шлюз
func (h *Handlers) InitiatePayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.payments.Initiate(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, err, "Failed to initiate payment")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListPayments - GET /api/bookings/:id/payments
// Получить историю платежей бронирования
func (h *Handlers) ListPayments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	payments, err := h.payments.History(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err, "Failed to list payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}

// OnPaymentUpdates - POST /api/payments/callback
// Принимать уведомления от платежного шлюза
func (h *Handlers) OnPaymentUpdates(c *gin.Context) {
	var notification models.PaymentNotificationPayload
	if err := c.ShouldBindJSON(&notification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log := logger.WithContext(c.Request.Context())
	log.Info("Payment notification received",
		"order_id", notification.OrderID,
		"status", notification.Status)

	if err := h.payments.HandleCallback(c.Request.Context(), &notification); err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			log.Warn("Payment notification rejected", "order_id", notification.OrderID, "error", err)
		}
		respondError(c, err, "Failed to handle notification")
		return
	}

	c.String(http.StatusOK, "OK")
}

// RecordOfflinePayment - POST /api/admin/bookings/:id/payments
// Зафиксировать оплату, принятую вне шлюза (наличные, UPI, перевод)
func (h *Handlers) RecordOfflinePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req models.OfflinePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.payments.RecordOffline(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to record payment")
		return
	}

	c.JSON(http.StatusOK, booking)
}

// SyncPayment - POST /api/admin/payments/:orderId/sync
// Сверить статус платежа со шлюзом, если уведомление не пришло
func (h *Handlers) SyncPayment(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	payment, err := h.payments.Sync(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err, "Failed to sync payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}
