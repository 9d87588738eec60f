package rabbitmq

import "github.com/magabrotheeeer/eltawla-payments/internal/models"

// ExchangePayments exchange платежных событий.
const ExchangePayments = "payments"

// Очереди, которые читает отправитель писем.
const (
	QueueReceipts       = "payment.receipts"
	QueueReconciliation = "payment.reconciliation"
)

const prefetch = 10

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// PaymentQueues возвращает очереди для событий успешной оплаты
// и списаний, которые не удалось сохранить.
func PaymentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueReceipts, RoutingKey: models.EventPaymentSucceeded},
		{QueueName: QueueReconciliation, RoutingKey: models.EventPaymentUnrecorded},
	}
}
