// Package paymentprocessor создает и подтверждает платежи в шлюзе
// и сохраняет их в истории пользователя.
package paymentprocessor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/money"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/payerr"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
	"github.com/magabrotheeeer/eltawla-payments/internal/receipt"
	"github.com/magabrotheeeer/eltawla-payments/internal/storage"
)

// Gateway часть платежного шлюза, работающая с intent.
type Gateway interface {
	RetrievePaymentIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error)
	CreatePaymentIntent(ctx context.Context, params models.IntentParams) (*models.PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*models.PaymentIntent, error)
}

// Repository хранилище платежей.
type Repository interface {
	GetPaymentMethodByProviderID(ctx context.Context, userID, providerMethodID string) (*models.PaymentMethod, error)
	SavePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	SavePaymentIfAbsent(ctx context.Context, p models.Payment) (*models.Payment, bool, error)
}

// IdempotencyStore хранит результаты оплаты по ключу идемпотентности.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Publisher публикует события о платежах.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Recorder учитывает платежи в метриках.
type Recorder interface {
	ObservePayment(outcome string)
	ObserveGatewayError(code string)
	ObserveUnrecorded()
	ObserveUnknownStatus()
}

// Service проводит платежи.
type Service struct {
	repo      Repository
	gateway   Gateway
	store     IdempotencyStore
	publisher Publisher
	metrics   Recorder
	ttl       time.Duration
	log       *slog.Logger
}

// New создает сервис. store, publisher и metrics могут быть nil.
func New(repo Repository, gateway Gateway, store IdempotencyStore, publisher Publisher,
	metrics Recorder, idempotencyTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		ttl:       idempotencyTTL,
		log:       log,
	}
}

// gatewayKeyNamespace пространство имен для ключей идемпотентности шлюза.
var gatewayKeyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://eltawla.tn/payments/idempotency"))

func idempotencyKey(userID, key string) string {
	return "idempotency:" + userID + ":" + key
}

// gatewayKey выводит ключ для шлюза из пользователя и ключа клиента,
// чтобы одинаковые ключи разных пользователей не совпадали в шлюзе.
func gatewayKey(userID, key string) string {
	return uuid.NewSHA1(gatewayKeyNamespace, []byte(userID+":"+key)).String()
}

// storedCharge результат оплаты в хранилище идемпотентности.
type storedCharge struct {
	Fingerprint string               `json:"fingerprint"`
	Result      *models.ChargeResult `json:"result"`
}

func fingerprint(req models.ChargeRequest, currency string) string {
	return fmt.Sprintf("%d:%s:%s", req.Amount, currency, req.PaymentMethodID)
}

func validateCharge(req models.ChargeRequest) (string, error) {
	if req.Amount <= 0 {
		return "", payerr.NewValidationError("amount", payerr.CodeInvalidAmount, "amount must be a positive number of minor units")
	}
	currency, err := money.ParseCurrency(req.Currency)
	if err != nil {
		return "", payerr.NewValidationError("currency", payerr.CodeInvalidCurrency, err.Error())
	}
	if strings.TrimSpace(req.PaymentMethodID) == "" {
		return "", payerr.NewValidationError("payment_method_id", payerr.CodeInvalidCard, "payment method is required")
	}
	return currency, nil
}

// ownedMetadata копирует метаданные и записывает в них владельца.
func ownedMetadata(userID string, metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata)+1)
	maps.Copy(out, metadata)
	out[models.MetadataUserID] = userID
	return out
}

// ProcessPayment создает и сразу подтверждает intent, затем сохраняет платеж
// со статусом, который вернул шлюз. Повторный запрос с тем же ключом
// идемпотентности возвращает сохраненный результат без обращения к шлюзу.
func (s *Service) ProcessPayment(ctx context.Context, userID string, req models.ChargeRequest) (*models.ChargeResult, error) {
	const op = "paymentprocessor.ProcessPayment"
	log := s.log.With(slog.String("op", op), sl.UserID(userID))

	currency, err := validateCharge(req)
	if err != nil {
		log.Info("charge rejected by validation", sl.Err(err))
		return nil, err
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	} else {
		cached, err := s.lookup(ctx, log, userID, key, fingerprint(req, currency))
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	}

	if err := s.ownMethod(ctx, log, op, userID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	// Отмена запроса клиента не прерывает списание и запись платежа.
	chargeCtx := context.WithoutCancel(ctx)

	intent, err := s.gateway.CreatePaymentIntent(chargeCtx, models.IntentParams{
		Amount:          req.Amount,
		Currency:        currency,
		PaymentMethodID: req.PaymentMethodID,
		Description:     req.Description,
		Metadata:        ownedMetadata(userID, req.Metadata),
		Confirm:         true,
		IdempotencyKey:  gatewayKey(userID, key),
	})
	if err != nil {
		return nil, s.gatewayFailure(log, err)
	}
	log = log.With(slog.String("intent_id", intent.ID), slog.String("status", intent.Status))

	payment := models.Payment{
		UserID:           userID,
		Amount:           req.Amount,
		Currency:         currency,
		PaymentMethodID:  req.PaymentMethodID,
		ProviderIntentID: intent.ID,
		Status:           intent.Status,
		Description:      req.Description,
		Metadata:         ownedMetadata(userID, req.Metadata),
		CardBrand:        intent.CardBrand,
		CardLast4:        intent.CardLast4,
	}

	saved, err := s.repo.SavePayment(chargeCtx, payment)
	if err != nil {
		return nil, s.persistenceFailure(chargeCtx, log, op, payment, err)
	}

	s.completed(chargeCtx, log, saved)

	result := &models.ChargeResult{Payment: saved, PaymentIntent: intent}
	if s.store != nil {
		stored := storedCharge{Fingerprint: fingerprint(req, currency), Result: result}
		if err := s.store.Set(chargeCtx, idempotencyKey(userID, key), stored, s.ttl); err != nil {
			log.Warn("failed to store idempotent result", sl.Err(err))
		}
	}
	return result, nil
}

// lookup ищет сохраненный результат по ключу. Ключ, уже использованный
// для другого запроса, дает ValidationError.
func (s *Service) lookup(ctx context.Context, log *slog.Logger, userID, key, fp string) (*models.ChargeResult, error) {
	if s.store == nil {
		return nil, nil
	}
	var cached storedCharge
	found, err := s.store.Get(ctx, idempotencyKey(userID, key), &cached)
	if err != nil {
		log.Warn("idempotency store unavailable", sl.Err(err))
		return nil, nil
	}
	if !found || cached.Result == nil || cached.Result.Payment == nil {
		return nil, nil
	}
	if cached.Fingerprint != fp {
		log.Info("idempotency key reused with different parameters")
		return nil, payerr.NewValidationError("idempotency_key", payerr.CodeIdempotencyKeyReused,
			"idempotency key was already used for a different payment")
	}
	log.Info("returning stored result for repeated request", slog.String("payment_id", cached.Result.Payment.ID))
	return cached.Result, nil
}

// ownMethod проверяет, что метод оплаты сохранен у пользователя.
func (s *Service) ownMethod(ctx context.Context, log *slog.Logger, op, userID, providerMethodID string) error {
	_, err := s.repo.GetPaymentMethodByProviderID(ctx, userID, providerMethodID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("payment method not found for user", slog.String("payment_method_id", providerMethodID))
		return payerr.ErrMethodNotFound
	}
	if err != nil {
		log.Error("failed to load payment method", sl.Err(err))
		return payerr.NewPersistenceError(op, err)
	}
	return nil
}

// ConfirmPaymentIntent подтверждает ранее созданный intent и сохраняет платеж,
// если для этого intent записи еще нет.
func (s *Service) ConfirmPaymentIntent(ctx context.Context, userID, intentID, paymentMethodID string) (*models.ChargeResult, error) {
	const op = "paymentprocessor.ConfirmPaymentIntent"
	log := s.log.With(slog.String("op", op), sl.UserID(userID), slog.String("intent_id", intentID))

	if strings.TrimSpace(intentID) == "" {
		return nil, payerr.NewValidationError("intent_id", payerr.CodeProcessingError, "intent id is required")
	}
	if strings.TrimSpace(paymentMethodID) == "" {
		return nil, payerr.NewValidationError("payment_method_id", payerr.CodeInvalidCard, "payment method is required")
	}

	// Владелец проверяется до подтверждения.
	existing, err := s.gateway.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return nil, s.gatewayFailure(log, err)
	}
	if owner := existing.Metadata[models.MetadataUserID]; owner == "" || owner != userID {
		log.Warn("intent is not owned by user")
		return nil, payerr.ErrPaymentNotFound
	}
	if err := s.ownMethod(ctx, log, op, userID, paymentMethodID); err != nil {
		return nil, err
	}

	chargeCtx := context.WithoutCancel(ctx)

	intent, err := s.gateway.ConfirmPaymentIntent(chargeCtx, intentID, paymentMethodID)
	if err != nil {
		return nil, s.gatewayFailure(log, err)
	}
	log = log.With(slog.String("status", intent.Status))

	payment := models.Payment{
		UserID:           userID,
		Amount:           intent.Amount,
		Currency:         intent.Currency,
		PaymentMethodID:  paymentMethodID,
		ProviderIntentID: intent.ID,
		Status:           intent.Status,
		Description:      intent.Description,
		Metadata:         ownedMetadata(userID, intent.Metadata),
		CardBrand:        intent.CardBrand,
		CardLast4:        intent.CardLast4,
	}

	saved, created, err := s.repo.SavePaymentIfAbsent(chargeCtx, payment)
	if err != nil {
		return nil, s.persistenceFailure(chargeCtx, log, op, payment, err)
	}
	if created {
		s.completed(chargeCtx, log, saved)
	} else {
		log.Info("payment already recorded for intent", slog.String("payment_id", saved.ID))
	}
	return &models.ChargeResult{Payment: saved, PaymentIntent: intent}, nil
}

func (s *Service) gatewayFailure(log *slog.Logger, err error) error {
	if !payerr.IsGateway(err) {
		err = &payerr.GatewayError{
			Code:    payerr.CodeProcessingError,
			RawCode: string(payerr.CodeProcessingError),
			Message: err.Error(),
		}
	}
	code := payerr.ErrorCode(err)
	if s.metrics != nil {
		s.metrics.ObserveGatewayError(string(code))
	}
	log.Warn("gateway rejected payment", slog.String("code", string(code)), sl.Err(err))
	return err
}

// persistenceFailure обрабатывает ошибку записи после ответа шлюза.
// Если деньги могли быть списаны, публикуется событие для сверки.
func (s *Service) persistenceFailure(ctx context.Context, log *slog.Logger, op string, p models.Payment, err error) error {
	charged := receipt.Classify(p.Status) != receipt.OutcomeFailed
	log.Error("payment accepted by gateway but not stored", slog.Bool("charged", charged), sl.Err(err))

	if charged {
		if s.metrics != nil {
			s.metrics.ObserveUnrecorded()
		}
		s.publish(ctx, log, models.EventPaymentUnrecorded, models.PaymentEvent{
			Type:     models.EventPaymentUnrecorded,
			UserID:   p.UserID,
			Email:    p.Metadata[models.MetadataEmail],
			IntentID: p.ProviderIntentID,
			Amount:   p.Amount,
			Currency: p.Currency,
			Reason:   err.Error(),
		})
	}
	return &payerr.PersistenceError{Op: op, GatewayRef: p.ProviderIntentID, Charged: charged, Err: err}
}

// completed учитывает сохраненный платеж и отправляет чек при успехе.
func (s *Service) completed(ctx context.Context, log *slog.Logger, p *models.Payment) {
	outcome := receipt.Classify(p.Status)
	if s.metrics != nil {
		s.metrics.ObservePayment(outcome.String())
	}

	switch outcome {
	case receipt.OutcomeUnknown:
		if s.metrics != nil {
			s.metrics.ObserveUnknownStatus()
		}
		log.Warn("gateway returned unknown payment status, treated as not successful", slog.String("payment_id", p.ID))
	case receipt.OutcomeSucceeded:
		rcpt := receipt.GenerateReceipt(p)
		s.publish(ctx, log, models.EventPaymentSucceeded, models.PaymentEvent{
			Type:     models.EventPaymentSucceeded,
			UserID:   p.UserID,
			Email:    p.Metadata[models.MetadataEmail],
			Payment:  p,
			Receipt:  &rcpt,
			IntentID: p.ProviderIntentID,
			Amount:   p.Amount,
			Currency: p.Currency,
		})
		log.Info("payment succeeded", slog.String("payment_id", p.ID))
	default:
		log.Info("payment recorded", slog.String("payment_id", p.ID), slog.String("outcome", outcome.String()))
	}
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, routingKey string, event models.PaymentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		log.Error("failed to publish payment event", slog.String("event", routingKey), sl.Err(err))
	}
}
