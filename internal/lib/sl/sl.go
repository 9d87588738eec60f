// Package sl содержит вспомогательные атрибуты для логгера slog.
package sl

import (
	"io"
	"log/slog"
)

// Err возвращает атрибут "error" с текстом ошибки. nil дает пустую строку.
//
//	log.Error("failed to save payment", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// UserID возвращает атрибут "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// Окружения, влияющие на формат логов.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// SetupLogger создает логгер для окружения: текст с debug локально,
// JSON в dev и prod.
func SetupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
