// Package receiptsender собирает потребителя событий о платежах,
// который рассылает чеки и уведомления оператору.
package receiptsender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/eltawla-payments/internal/config"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/smtp"
	"github.com/magabrotheeeer/eltawla-payments/internal/services/sender"
)

// Consumer подписка на очередь с обработчиком сообщений.
type Consumer struct {
	Queue   string
	Handler func([]byte) error
}

// Consumers возвращает подписки отправителя: чеки и сверка.
func Consumers(s *sender.SenderService) []Consumer {
	return []Consumer{
		{Queue: rabbitmq.QueueReceipts, Handler: s.SendReceipt},
		{Queue: rabbitmq.QueueReconciliation, Handler: s.SendReconciliationAlert},
	}
}

// App потребитель очередей payment.receipts и payment.reconciliation.
type App struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	consumers []Consumer
	logger    *slog.Logger
}

// New подключается к RabbitMQ и объявляет очереди платежей.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "receiptsender.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ExchangePayments, rabbitmq.PaymentQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := sender.NewSenderService(transport, cfg.OperatorEmail, logger)

	return &App{
		conn:      conn,
		ch:        ch,
		consumers: Consumers(senderService),
		logger:    logger,
	}, nil
}

// Run запускает потребителей и ждет отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	for _, c := range a.consumers {
		if err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, c.Queue, c.Handler); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", c.Queue), sl.Err(err))
			return err
		}
		a.logger.Info("consumer started", slog.String("queue", c.Queue))
	}

	<-ctx.Done()
	a.logger.Info("receipt sender shutting down gracefully")
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
