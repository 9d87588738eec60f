// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/payerr"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (опционально, при неуспехе).
// Поле Data: данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse: структура ошибки, она же используется в Swagger-документации.
// Code заполняется для ошибок платежного сценария.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"Votre carte a été refusée."`
	Code   string `json:"code,omitempty" example:"card_declined"`
}

const (
	// StatusOK: значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError: значение статуса для ответа с ошибкой.
	StatusError = "Error"
	// CodeNotFound: код ответа для отсутствующей записи пользователя.
	CodeNotFound = "not_found"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// PaymentError переводит ошибку сервиса в HTTP статус и тело ответа.
// Текст всегда берется из payerr.FriendlyMessage, детали ошибки наружу не уходят.
func PaymentError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, payerr.ErrMethodNotFound):
		return http.StatusNotFound, ErrorResponse{Status: StatusError, Error: payerr.ErrMethodNotFound.Error(), Code: CodeNotFound}
	case errors.Is(err, payerr.ErrPaymentNotFound):
		return http.StatusNotFound, ErrorResponse{Status: StatusError, Error: payerr.ErrPaymentNotFound.Error(), Code: CodeNotFound}
	case payerr.IsValidation(err):
		return http.StatusUnprocessableEntity, paymentErrorBody(err)
	case payerr.IsGateway(err):
		return http.StatusPaymentRequired, paymentErrorBody(err)
	default:
		return http.StatusInternalServerError, paymentErrorBody(err)
	}
}

func paymentErrorBody(err error) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  payerr.FriendlyMessage(err),
		Code:   string(payerr.ErrorCode(err)),
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be %s characters long", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters long", err.Field(), err.Param()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
