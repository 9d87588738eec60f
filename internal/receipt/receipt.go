// Package receipt строит чеки из записей о платежах и классифицирует
// статусы, возвращаемые платежным шлюзом.
package receipt

import (
	"strings"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/card"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/money"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// Outcome итог платежа по его статусу.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomePending
	OutcomeSucceeded
	OutcomeFailed
	OutcomeRefunded
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

var outcomes = map[string]Outcome{
	"succeeded":               OutcomeSucceeded,
	"completed":               OutcomeSucceeded,
	"pending":                 OutcomePending,
	"processing":              OutcomePending,
	"requires_action":         OutcomePending,
	"requires_confirmation":   OutcomePending,
	"requires_capture":        OutcomePending,
	"requires_payment_method": OutcomeFailed,
	"failed":                  OutcomeFailed,
	"canceled":                OutcomeFailed,
	"refunded":                OutcomeRefunded,
}

// Classify относит статус шлюза к одному из итогов. Нераспознанные статусы
// дают OutcomeUnknown.
func Classify(status string) Outcome {
	if o, ok := outcomes[strings.ToLower(status)]; ok {
		return o
	}
	return OutcomeUnknown
}

// IsPaymentSuccessful true только для succeeded и completed.
func IsPaymentSuccessful(status string) bool {
	return Classify(status) == OutcomeSucceeded
}

const dateLayout = "02/01/2006 15:04"

// GenerateReceipt строит чек. Чистая функция: один и тот же платеж всегда
// дает один и тот же чек.
func GenerateReceipt(p *models.Payment) models.Receipt {
	if p == nil {
		return models.Receipt{}
	}
	currency := strings.ToUpper(p.Currency)
	r := models.Receipt{
		PaymentID:   p.ID,
		Amount:      money.FormatAmount(p.Amount, currency),
		Currency:    currency,
		Description: p.Description,
		Card:        card.Mask(p.CardLast4),
		Status:      p.Status,
		Successful:  IsPaymentSuccessful(p.Status),
	}
	if !p.CreatedAt.IsZero() {
		r.Date = p.CreatedAt.Format(dateLayout)
	}
	r.Number = receiptNumber(p)
	return r
}

func receiptNumber(p *models.Payment) string {
	id := p.ID
	if len(id) > 8 {
		id = id[:8]
	}
	if p.CreatedAt.IsZero() {
		return "ET-" + strings.ToUpper(id)
	}
	return "ET-" + p.CreatedAt.Format("20060102") + "-" + strings.ToUpper(id)
}
