package models

import "time"

// MetadataUserID ключ метаданных, в котором всегда лежит владелец платежа.
const MetadataUserID = "user_id"

// MetadataEmail ключ метаданных с адресом для отправки чека.
const MetadataEmail = "email"

// Payment запись о платеже. Сумма в минимальных единицах валюты,
// статус передается от шлюза без изменений.
type Payment struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	PaymentMethodID  string            `json:"payment_method_id"`
	ProviderIntentID string            `json:"provider_intent_id"`
	Status           string            `json:"status"`
	Description      string            `json:"description"`
	Metadata         map[string]string `json:"metadata"`
	CardBrand        string            `json:"card_brand,omitempty"`
	CardLast4        string            `json:"card_last4,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// PaymentIntent попытка списания на стороне шлюза.
type PaymentIntent struct {
	ID              string            `json:"id"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	PaymentMethodID string            `json:"payment_method_id"`
	Description     string            `json:"description"`
	Metadata        map[string]string `json:"metadata"`
	CardBrand       string            `json:"card_brand,omitempty"`
	CardLast4       string            `json:"card_last4,omitempty"`
}

// IntentParams параметры создания intent в шлюзе.
type IntentParams struct {
	Amount          int64
	Currency        string
	PaymentMethodID string
	Description     string
	Metadata        map[string]string
	Confirm         bool
	IdempotencyKey  string
}

// ChargeRequest запрос на оплату от клиента.
type ChargeRequest struct {
	Amount          int64
	Currency        string
	PaymentMethodID string
	Description     string
	Metadata        map[string]string
	IdempotencyKey  string
}

// ChargeResult итог оплаты: сохраненная запись и intent шлюза.
type ChargeResult struct {
	Payment       *Payment       `json:"payment"`
	PaymentIntent *PaymentIntent `json:"payment_intent"`
}
