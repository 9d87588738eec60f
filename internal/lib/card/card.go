// Package card содержит чистые проверки реквизитов банковской карты.
package card

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

const numberLength = 16

// Normalize удаляет пробельные символы из номера карты.
func Normalize(number string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, number)
}

// ValidNumber проверяет, что номер состоит ровно из 16 цифр без учета пробелов.
func ValidNumber(number string) bool {
	n := Normalize(number)
	return len(n) == numberLength && allDigits(n)
}

// ValidExpiry проверяет, что срок действия не истек относительно now.
// Двузначный год трактуется как 2000+год. Карта действительна до конца месяца.
func ValidExpiry(month, year string, now time.Time) bool {
	m, y, ok := ParseExpiry(month, year)
	if !ok {
		return false
	}
	nowYear, nowMonth := now.Year(), int(now.Month())
	if y != nowYear {
		return y > nowYear
	}
	return m >= nowMonth
}

// ParseExpiry разбирает месяц и год срока действия.
func ParseExpiry(month, year string) (int, int, bool) {
	month, year = strings.TrimSpace(month), strings.TrimSpace(year)
	if !allDigits(month) || !allDigits(year) {
		return 0, 0, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0, 0, false
	}
	switch len(year) {
	case 2:
		y += 2000
	case 4:
	default:
		return 0, 0, false
	}
	return m, y, true
}

// ValidCVC проверяет, что код состоит из 3 или 4 цифр.
func ValidCVC(cvc string) bool {
	return (len(cvc) == 3 || len(cvc) == 4) && allDigits(cvc)
}

// Last4 возвращает последние четыре цифры номера.
func Last4(number string) string {
	n := Normalize(number)
	if len(n) < 4 {
		return n
	}
	return n[len(n)-4:]
}

// Mask скрывает номер карты, оставляя последние четыре цифры.
func Mask(last4 string) string {
	if last4 == "" {
		return ""
	}
	return "•••• •••• •••• " + last4
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
