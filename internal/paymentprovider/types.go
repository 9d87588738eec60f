package paymentprovider

// BillingDetails данные плательщика.
type BillingDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// CardParams реквизиты карты для токенизации.
type CardParams struct {
	Number   string `json:"number"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// CreatePaymentMethodRequest запрос на создание платежного метода (токенизация карты)
type CreatePaymentMethodRequest struct {
	Type           string         `json:"type"`
	Card           CardParams     `json:"card"`
	BillingDetails BillingDetails `json:"billing_details"`
}

// CardSummary сведения о карте, которые шлюз возвращает после токенизации.
type CardSummary struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// PaymentMethodResponse ответ шлюза с платежным методом.
type PaymentMethodResponse struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Card CardSummary `json:"card"`
}

// CreatePaymentIntentRequest запрос на создание intent.
type CreatePaymentIntentRequest struct {
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Confirm       bool              `json:"confirm"`
}

// ConfirmPaymentIntentRequest запрос на подтверждение intent.
type ConfirmPaymentIntentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// PaymentIntentResponse ответ шлюза с intent.
type PaymentIntentResponse struct {
	ID                   string            `json:"id"`
	Amount               int64             `json:"amount"`
	Currency             string            `json:"currency"`
	Status               string            `json:"status"`
	PaymentMethod        string            `json:"payment_method"`
	Description          string            `json:"description"`
	Metadata             map[string]string `json:"metadata"`
	Created              int64             `json:"created"`
	PaymentMethodDetails struct {
		Card CardSummary `json:"card"`
	} `json:"payment_method_details"`
}

// ErrorResponse тело ответа шлюза с ошибкой.
type ErrorResponse struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
		Message     string `json:"message"`
	} `json:"error"`
}
