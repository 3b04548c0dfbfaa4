package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"yatra/internal/auth"
	"yatra/internal/cache"
	"yatra/internal/config"
	apperrors "yatra/internal/errors"
	"yatra/internal/logger"
	"yatra/internal/models"
	"yatra/internal/repository"
	"yatra/internal/validation"
)

type AuthService struct {
	users  *repository.UserRepository
	otp    OTPStore
	sms    auth.SMSSender
	tokens *auth.TokenManager
	cfg    config.AuthConfig
}

func NewAuthService(users *repository.UserRepository, otp OTPStore, sms auth.SMSSender, tokens *auth.TokenManager, cfg config.AuthConfig) *AuthService {
	if sms == nil {
		sms = auth.LogSender{}
	}
	return &AuthService{
		users:  users,
		otp:    otp,
		sms:    sms,
		tokens: tokens,
		cfg:    cfg,
	}
}

// RequestOTP sends a fresh login code to the phone. Codes can be resent once
// per resend interval.
func (s *AuthService) RequestOTP(ctx context.Context, req *models.OTPRequest) (*models.OTPRequestResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	phone := validation.NormalizePhone(req.Phone)

	ok, err := s.otp.AcquireResendSlot(ctx, phone, s.cfg.OTPResendInterval)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrRateLimited
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashCode(code)
	if err != nil {
		return nil, err
	}
	if err := s.otp.SaveOTP(ctx, phone, hash, s.cfg.OTPTTL); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("%s is your Yatra login code. It expires in %d minutes.", code, int(s.cfg.OTPTTL.Minutes()))
	if err := s.sms.Send(ctx, phone, msg); err != nil {
		return nil, fmt.Errorf("failed to send otp: %w", err)
	}

	return &models.OTPRequestResponse{ExpiresIn: int(s.cfg.OTPTTL.Seconds())}, nil
}

// VerifyOTP exchanges a valid code for an access token, creating the user on
// first login
func (s *AuthService) VerifyOTP(ctx context.Context, req *models.OTPVerifyRequest) (*models.AuthResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	phone := validation.NormalizePhone(req.Phone)

	hash, err := s.otp.GetOTP(ctx, phone)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	attempts, err := s.otp.IncrOTPAttempts(ctx, phone, s.cfg.OTPTTL)
	if err != nil {
		return nil, err
	}
	if s.cfg.OTPMaxAttempts > 0 && attempts > int64(s.cfg.OTPMaxAttempts) {
		if err := s.otp.DeleteOTP(ctx, phone); err != nil {
			logger.WithContext(ctx).Warn("Failed to drop exhausted otp", "error", err)
		}
		return nil, apperrors.ErrRateLimited
	}

	if !auth.CompareCode(hash, req.Code) {
		return nil, apperrors.ErrUnauthorized
	}
	if err := s.otp.DeleteOTP(ctx, phone); err != nil {
		logger.WithContext(ctx).Warn("Failed to delete used otp", "error", err)
	}
	if err := s.otp.ResetOTPAttempts(ctx, phone); err != nil {
		logger.WithContext(ctx).Warn("Failed to reset otp attempts", "error", err)
	}

	role := models.RoleUser
	if slices.ContainsFunc(s.cfg.AdminPhones, func(admin string) bool {
		return validation.NormalizePhone(admin) == phone
	}) {
		role = models.RoleAdmin
	}

	user, err := s.users.UpsertOnLogin(ctx, phone, req.Name, role)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}
