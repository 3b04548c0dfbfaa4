package errors

import (
	"errors"
	"fmt"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")
var ErrRateLimited = errors.New("too many attempts, retry later")

// ValidationError - входные данные некорректны или вне допустимого диапазона
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NotFoundError - запрошенная сущность отсутствует
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// InsufficientSeatsError - мест не хватает (распроданы или проиграна гонка)
type InsufficientSeatsError struct {
	TripID    int64
	Requested int
	Available int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("trip %d: requested %d seats, %d available", e.TripID, e.Requested, e.Available)
}

// InvalidStateError - операция недопустима в текущем состоянии
type InvalidStateError struct {
	Resource string
	State    string
	Action   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %s", e.Action, e.Resource, e.State)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NewNotFoundError(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func NewInsufficientSeatsError(tripID int64, requested, available int) error {
	return &InsufficientSeatsError{TripID: tripID, Requested: requested, Available: available}
}

func NewInvalidStateError(resource, state, action string) error {
	return &InvalidStateError{Resource: resource, State: state, Action: action}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsInsufficientSeats(err error) bool {
	var target *InsufficientSeatsError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}
