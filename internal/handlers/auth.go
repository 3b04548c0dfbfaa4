package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yatra/internal/models"
)

// RequestOTP - POST /api/auth/otp/request
// Отправить код входа по SMS
func (h *Handlers) RequestOTP(c *gin.Context) {
	var req models.OTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.auth.RequestOTP(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to send code")
		return
	}

	c.JSON(http.StatusAccepted, response)
}

// VerifyOTP - POST /api/auth/otp/verify
// Проверить код и выдать токен
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req models.OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.auth.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to verify code")
		return
	}

	c.JSON(http.StatusOK, response)
}
