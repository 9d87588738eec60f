// Package payerr описывает классы ошибок платежного сценария:
// ошибки валидации входных данных, отказы платежного шлюза и ошибки
// хранилища, возникшие после успешного шага на стороне шлюза.
// Классы всегда различимы через errors.As, чтобы сверка расхождений
// могла опираться на PersistenceError.
package payerr

import (
	"errors"
	"fmt"
)

// Sentinel errors для поиска записей пользователя.
var (
	ErrMethodNotFound  = errors.New("payment method not found")
	ErrPaymentNotFound = errors.New("payment not found")
)

// ValidationError некорректный ввод, обнаруженный до любого внешнего вызова.
type ValidationError struct {
	Field   string
	Code    Code
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// NewValidationError создает ValidationError.
func NewValidationError(field string, code Code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// GatewayError отказ или сбой платежного шлюза.
// RawCode хранит исходный код шлюза, Code его нормализованное значение.
type GatewayError struct {
	Code       Code
	RawCode    string
	Message    string
	StatusCode int
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway error: %s", e.RawCode)
	}
	return fmt.Sprintf("gateway error: %s: %s", e.RawCode, e.Message)
}

// NewGatewayError создает GatewayError из сырого кода шлюза.
func NewGatewayError(rawCode, message string, statusCode int) *GatewayError {
	return &GatewayError{
		Code:       ParseCode(rawCode),
		RawCode:    rawCode,
		Message:    message,
		StatusCode: statusCode,
	}
}

// PersistenceError сбой хранилища. GatewayRef содержит идентификатор объекта,
// уже существующего на стороне шлюза (метод или intent), Charged означает,
// что деньги списаны, а локальной записи нет.
type PersistenceError struct {
	Op         string
	GatewayRef string
	Charged    bool
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.GatewayRef != "" {
		return fmt.Sprintf("%s: persistence failed (gateway ref %s): %v", e.Op, e.GatewayRef, e.Err)
	}
	return fmt.Sprintf("%s: persistence failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError оборачивает ошибку хранилища.
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation сообщает, является ли err ошибкой валидации.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsGateway сообщает, является ли err ошибкой шлюза.
func IsGateway(err error) bool {
	var target *GatewayError
	return errors.As(err, &target)
}

// IsPersistence сообщает, является ли err ошибкой хранилища.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

// IsUnrecordedCharge сообщает, что деньги списаны, но платеж не сохранен.
func IsUnrecordedCharge(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target) && target.Charged
}
