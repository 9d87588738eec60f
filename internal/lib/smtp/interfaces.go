// Package smtp содержит транспорт для отправки писем через SMTP со STARTTLS.
package smtp

import "io"

// Client сессия SMTP, открытая транспортом.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает сессии к почтовому серверу от имени адреса From.
type Dialer interface {
	Connect() (Client, error)
	From() string
}
