// Package paymentprovider реализует HTTP-клиент платежного шлюза:
// токенизацию карт, отвязку методов, создание и подтверждение intent.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/payerr"
	"github.com/magabrotheeeer/eltawla-payments/internal/models"
)

// Client клиент платежного шлюза.
type Client struct {
	name       string
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент шлюза. name сохраняется в записи о методе.
func NewClient(name, apiURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:       name,
		secretKey:  secretKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name возвращает название шлюза.
func (c *Client) Name() string {
	return c.name
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do выполняет запрос и декодирует ответ. Любая ошибка приводится к *payerr.GatewayError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &payerr.GatewayError{
			Code:    payerr.CodeAPIConnection,
			RawCode: string(payerr.CodeAPIConnection),
			Message: err.Error(),
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &payerr.GatewayError{
			Code:       payerr.CodeAPIConnection,
			RawCode:    string(payerr.CodeAPIConnection),
			Message:    err.Error(),
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &payerr.GatewayError{
			Code:       payerr.CodeProcessingError,
			RawCode:    "invalid_response",
			Message:    err.Error(),
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

func parseError(status int, body []byte) *payerr.GatewayError {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Code == "" && errResp.Error.DeclineCode == "" {
		code := "processing_error"
		switch {
		case status == http.StatusTooManyRequests:
			code = string(payerr.CodeRateLimit)
		case status >= 500:
			code = string(payerr.CodeAPIConnection)
		}
		return payerr.NewGatewayError(code, http.StatusText(status), status)
	}

	raw := errResp.Error.Code
	if dc := errResp.Error.DeclineCode; dc != "" && payerr.ParseCode(dc) != payerr.CodeUnrecognized {
		raw = dc
	}
	if raw == "" {
		raw = errResp.Error.DeclineCode
	}
	return payerr.NewGatewayError(raw, errResp.Error.Message, status)
}

// CreatePaymentMethod регистрирует карту в шлюзе.
func (c *Client) CreatePaymentMethod(ctx context.Context, card models.CardDetails, expMonth, expYear int) (*models.RegisteredCard, error) {
	reqBody := CreatePaymentMethodRequest{
		Type: "card",
		Card: CardParams{
			Number:   card.Number,
			ExpMonth: expMonth,
			ExpYear:  expYear,
			CVC:      card.CVC,
		},
		BillingDetails: BillingDetails{
			Name:  card.HolderName,
			Email: card.Email,
		},
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_methods", reqBody)
	if err != nil {
		return nil, err
	}

	var pm PaymentMethodResponse
	if err := c.do(req, &pm); err != nil {
		return nil, err
	}
	if pm.ID == "" {
		return nil, payerr.NewGatewayError("processing_error", "empty payment method id", http.StatusOK)
	}
	return &models.RegisteredCard{
		ProviderMethodID: pm.ID,
		Brand:            pm.Card.Brand,
		Last4:            pm.Card.Last4,
		ExpMonth:         pm.Card.ExpMonth,
		ExpYear:          pm.Card.ExpYear,
	}, nil
}

// DetachPaymentMethod отвязывает метод от клиента в шлюзе.
func (c *Client) DetachPaymentMethod(ctx context.Context, providerMethodID string) error {
	if providerMethodID == "" {
		return payerr.NewValidationError("provider_method_id", payerr.CodeInvalidCard, "empty provider method id")
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_methods/"+url.PathEscape(providerMethodID)+"/detach", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// CreatePaymentIntent создает intent. Ключ идемпотентности передается
// в заголовке Idempotency-Key, при его отсутствии генерируется новый.
func (c *Client) CreatePaymentIntent(ctx context.Context, params models.IntentParams) (*models.PaymentIntent, error) {
	reqBody := CreatePaymentIntentRequest{
		Amount:        params.Amount,
		Currency:      strings.ToLower(params.Currency),
		PaymentMethod: params.PaymentMethodID,
		Description:   params.Description,
		Metadata:      params.Metadata,
		Confirm:       params.Confirm,
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents", reqBody)
	if err != nil {
		return nil, err
	}
	key := params.IdempotencyKey
	if key == "" {
		key = uuid.New().String()
	}
	req.Header.Set("Idempotency-Key", key)

	var resp PaymentIntentResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return toIntent(resp), nil
}

// ConfirmPaymentIntent подтверждает ранее созданный intent.
func (c *Client) ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*models.PaymentIntent, error) {
	if intentID == "" {
		return nil, payerr.NewValidationError("intent_id", payerr.CodeProcessingError, "empty intent id")
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents/"+url.PathEscape(intentID)+"/confirm",
		ConfirmPaymentIntentRequest{PaymentMethod: paymentMethodID})
	if err != nil {
		return nil, err
	}

	var resp PaymentIntentResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return toIntent(resp), nil
}

// RetrievePaymentIntent читает intent без изменения его состояния.
func (c *Client) RetrievePaymentIntent(ctx context.Context, intentID string) (*models.PaymentIntent, error) {
	if intentID == "" {
		return nil, payerr.NewValidationError("intent_id", payerr.CodeProcessingError, "empty intent id")
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(intentID), nil)
	if err != nil {
		return nil, err
	}

	var resp PaymentIntentResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return toIntent(resp), nil
}

func toIntent(resp PaymentIntentResponse) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:              resp.ID,
		Amount:          resp.Amount,
		Currency:        strings.ToUpper(resp.Currency),
		Status:          resp.Status,
		PaymentMethodID: resp.PaymentMethod,
		Description:     resp.Description,
		Metadata:        resp.Metadata,
		CardBrand:       resp.PaymentMethodDetails.Card.Brand,
		CardLast4:       resp.PaymentMethodDetails.Card.Last4,
	}
}
