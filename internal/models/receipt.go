package models

// Receipt чек, построенный из записи о платеже. Не хранится.
type Receipt struct {
	Number      string `json:"number"`
	PaymentID   string `json:"payment_id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Card        string `json:"card"`
	Status      string `json:"status"`
	Successful  bool   `json:"successful"`
}

// Типы событий о платежах.
const (
	EventPaymentSucceeded  = "payment.succeeded"
	EventPaymentUnrecorded = "payment.unrecorded"
)

// PaymentEvent сообщение, публикуемое в брокер после списания.
type PaymentEvent struct {
	Type     string   `json:"type"`
	UserID   string   `json:"user_id"`
	Email    string   `json:"email,omitempty"`
	Payment  *Payment `json:"payment,omitempty"`
	Receipt  *Receipt `json:"receipt,omitempty"`
	IntentID string   `json:"intent_id"`
	Amount   int64    `json:"amount"`
	Currency string   `json:"currency"`
	Reason   string   `json:"reason,omitempty"`
}
