// Package sender отправляет письма по событиям о платежах:
// чек плательщику и уведомление оператору о несохраненном списании.
package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/badoux/checkmail"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/money"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/smtp"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// ErrInvalidRecipient адрес получателя не прошел проверку формата.
var ErrInvalidRecipient = errors.New("invalid recipient address")

// SenderService отправляет письма через SMTP.
type SenderService struct {
	transport     smtp.Dialer
	operatorEmail string
	log           *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.Dialer, operatorEmail string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport:     transport,
		operatorEmail: operatorEmail,
		log:           log,
	}
}

func decodeEvent(body []byte, eventType string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("error unmarshalling message: %w: %w", err, rabbitmq.ErrDrop)
	}
	if event.Type != "" && event.Type != eventType {
		return nil, fmt.Errorf("unexpected event type %q: %w", event.Type, rabbitmq.ErrDrop)
	}
	return &event, nil
}

func validRecipient(email string) error {
	if err := checkmail.ValidateFormat(email); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidRecipient, email, rabbitmq.ErrDrop)
	}
	return nil
}

// SendReceipt отправляет чек по событию payment.succeeded.
// Событие без адреса плательщика пропускается.
func (s *SenderService) SendReceipt(body []byte) error {
	const op = "sender.SendReceipt"
	log := s.log.With(slog.String("op", op))

	event, err := decodeEvent(body, models.EventPaymentSucceeded)
	if err != nil {
		log.Error("failed to decode event", sl.Err(err))
		return err
	}
	if event.Email == "" {
		log.Info("no recipient for receipt, skipping", sl.UserID(event.UserID), slog.String("intent_id", event.IntentID))
		return nil
	}
	if err := validRecipient(event.Email); err != nil {
		log.Warn("receipt recipient rejected", sl.Err(err))
		return err
	}
	if event.Receipt == nil {
		return fmt.Errorf("event for intent %s has no receipt: %w", event.IntentID, rabbitmq.ErrDrop)
	}

	r := event.Receipt
	subject := "Votre reçu El Tawla " + r.Number
	lines := []string{
		"Merci pour votre paiement.",
		"",
		"Reçu : " + r.Number,
		"Date : " + r.Date,
		"Montant : " + r.Amount,
	}
	if r.Description != "" {
		lines = append(lines, "Description : "+r.Description)
	}
	if r.Card != "" {
		lines = append(lines, "Carte : "+r.Card)
	}
	lines = append(lines, "Statut : "+r.Status)

	return s.sendEmail([]string{event.Email}, subject, strings.Join(lines, "\r\n"))
}

// SendReconciliationAlert уведомляет оператора о списании, которое не удалось сохранить.
func (s *SenderService) SendReconciliationAlert(body []byte) error {
	const op = "sender.SendReconciliationAlert"
	log := s.log.With(slog.String("op", op))

	event, err := decodeEvent(body, models.EventPaymentUnrecorded)
	if err != nil {
		log.Error("failed to decode event", sl.Err(err))
		return err
	}
	if s.operatorEmail == "" {
		log.Warn("operator email is not configured, alert dropped", slog.String("intent_id", event.IntentID))
		return nil
	}
	if err := validRecipient(s.operatorEmail); err != nil {
		log.Error("operator email rejected", sl.Err(err))
		return err
	}

	subject := "[El Tawla] Payment requires reconciliation: " + event.IntentID
	bodyText := fmt.Sprintf(
		"A charge was accepted by the gateway but not recorded.\r\n\r\n"+
			"Intent: %s\r\nUser: %s\r\nAmount: %s\r\nReason: %s\r\n",
		event.IntentID, event.UserID, money.FormatAmount(event.Amount, event.Currency), event.Reason)

	return s.sendEmail([]string{s.operatorEmail}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.From()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("Failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
