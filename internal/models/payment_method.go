// Package models содержит доменные структуры платежного сценария:
// сохраненные способы оплаты, платежи, чеки и события.
package models

import "time"

// PaymentMethod сохраненный способ оплаты пользователя.
// Полный номер карты и CVC здесь не хранятся, только последние четыре цифры.
type PaymentMethod struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Provider         string    `json:"provider"`           // Название платежного шлюза
	ProviderMethodID string    `json:"provider_method_id"` // Токен метода на стороне шлюза
	CardLast4        string    `json:"card_last4"`
	CardBrand        string    `json:"card_brand"`
	ExpMonth         int       `json:"exp_month"`
	ExpYear          int       `json:"exp_year"`
	IsDefault        bool      `json:"is_default"`
	CreatedAt        time.Time `json:"created_at"`
}

// CardDetails реквизиты карты, введенные пользователем. Никогда не сохраняются.
type CardDetails struct {
	Number     string
	ExpMonth   string
	ExpYear    string
	CVC        string
	HolderName string
	Email      string
}

// RegisteredCard ответ шлюза на регистрацию карты.
type RegisteredCard struct {
	ProviderMethodID string
	Brand            string
	Last4            string
	ExpMonth         int
	ExpYear          int
}
