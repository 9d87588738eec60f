package payerr

import "errors"

// Code нормализованный код ошибки платежа.
type Code string

// Известные коды. Все, что не входит в набор, сводится к CodeUnrecognized.
const (
	CodeCardDeclined           Code = "card_declined"
	CodeInsufficientFunds      Code = "insufficient_funds"
	CodeExpiredCard            Code = "expired_card"
	CodeIncorrectCVC           Code = "incorrect_cvc"
	CodeIncorrectNumber        Code = "incorrect_number"
	CodeInvalidCard            Code = "invalid_card"
	CodeInvalidExpiry          Code = "invalid_expiry"
	CodeInvalidAmount          Code = "invalid_amount"
	CodeInvalidCurrency        Code = "invalid_currency"
	CodeProcessingError        Code = "processing_error"
	CodeAuthenticationRequired Code = "authentication_required"
	CodeAPIConnection          Code = "api_connection_error"
	CodeRateLimit              Code = "rate_limit"
	CodeReconciliationRequired Code = "reconciliation_required"
	CodeIdempotencyKeyReused   Code = "idempotency_key_reused"
	CodeUnrecognized           Code = "unrecognized"
)

const fallbackMessage = "Une erreur inattendue s'est produite lors du paiement. Veuillez réessayer."

var friendlyMessages = map[Code]string{
	CodeCardDeclined:           "Votre carte a été refusée.",
	CodeInsufficientFunds:      "Fonds insuffisants sur votre carte.",
	CodeExpiredCard:            "Votre carte a expiré.",
	CodeIncorrectCVC:           "Le code de sécurité de votre carte est incorrect.",
	CodeIncorrectNumber:        "Le numéro de carte est incorrect.",
	CodeInvalidCard:            "Les informations de votre carte sont invalides.",
	CodeInvalidExpiry:          "La date d'expiration de votre carte est invalide.",
	CodeInvalidAmount:          "Le montant du paiement est invalide.",
	CodeInvalidCurrency:        "La devise du paiement n'est pas prise en charge.",
	CodeProcessingError:        "Une erreur est survenue lors du traitement de votre carte. Veuillez réessayer.",
	CodeAuthenticationRequired: "Une authentification supplémentaire est requise pour ce paiement.",
	CodeAPIConnection:          "Impossible de joindre le service de paiement. Vérifiez votre connexion.",
	CodeRateLimit:              "Trop de requêtes. Veuillez patienter quelques instants.",
	CodeReconciliationRequired: "Votre paiement a été effectué mais n'a pas pu être enregistré. Notre équipe va le vérifier.",
	CodeIdempotencyKeyReused:   "Ce paiement a déjà été envoyé avec d'autres paramètres.",
}

// ParseCode переводит сырой код шлюза в закрытый набор Code.
func ParseCode(raw string) Code {
	c := Code(raw)
	if _, ok := friendlyMessages[c]; ok {
		return c
	}
	return CodeUnrecognized
}

// Message возвращает текст для пользователя. Для неизвестных кодов
// возвращается общее сообщение.
func (c Code) Message() string {
	if msg, ok := friendlyMessages[c]; ok {
		return msg
	}
	return fallbackMessage
}

// ErrorCode извлекает код из ошибки любого класса. Ошибки вне таксономии
// дают CodeUnrecognized.
func ErrorCode(err error) Code {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Code
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Code
	}
	var persErr *PersistenceError
	if errors.As(err, &persErr) && persErr.Charged {
		return CodeReconciliationRequired
	}
	return CodeUnrecognized
}

// FriendlyMessage возвращает текст ошибки для пользователя. Функция тотальна:
// nil и любые неизвестные ошибки дают общее сообщение.
func FriendlyMessage(err error) string {
	if err == nil {
		return fallbackMessage
	}
	return ErrorCode(err).Message()
}
