package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthRequired        = errors.New("authentication required")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmptyMessage        = errors.New("empty message")
	ErrRequestFailed       = errors.New("request failed")
	ErrNetwork             = errors.New("network error")
	ErrChatNotFound        = errors.New("chat not found")
	ErrSessionEnded        = errors.New("session ended before the response arrived")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAttachmentNotFound  = errors.New("attachment not found")
	ErrPasswordTooShort    = errors.New("password too short")
	ErrEmptyTitle          = errors.New("empty chat title")
	ErrUnknownModel        = errors.New("unknown model")
	ErrUnknownTheme        = errors.New("unknown theme")
	ErrInvalidProfile      = errors.New("invalid profile change")
)

// RequestFailedError is a non-2xx response other than 401/402.
type RequestFailedError struct {
	Status int
	Detail string
}

func (e *RequestFailedError) Error() string {
	return e.Detail
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}
