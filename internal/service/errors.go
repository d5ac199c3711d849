package service

import (
	"errors"
	"fmt"
)

// 錯誤種類，以 errors.Is 判斷
var (
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrIntegrity    = errors.New("integrity violation")
	ErrDerangement  = errors.New("derangement failed")
)

// Error 是帶有種類與可讀訊息的領域錯誤
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
