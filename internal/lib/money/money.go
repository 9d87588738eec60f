// Package money форматирует суммы, хранящиеся в минимальных единицах валюты.
package money

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

// ParseCurrency проверяет трехбуквенный код ISO 4217 и возвращает его
// в верхнем регистре.
func ParseCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("currency code %q must have 3 letters", code)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("unknown currency %q: %w", code, err)
	}
	return unit.String(), nil
}

// Scale возвращает число знаков после запятой для валюты (TND 3, EUR 2, JPY 0).
// Для неизвестной валюты используется 2.
func Scale(code string) int {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// FormatAmount форматирует сумму во французском стиле:
// пробел между тысячами, запятая перед дробной частью, код валюты в конце.
//
//	FormatAmount(45000, "TND") == "45,000 TND"
//	FormatAmount(123456, "EUR") == "1 234,56 EUR"
func FormatAmount(amount int64, code string) string {
	code = strings.ToUpper(code)
	scale := Scale(code)

	sign := ""
	abs := uint64(amount)
	if amount < 0 {
		sign = "-"
		abs = uint64(-(amount + 1)) + 1
	}

	digits := strconv.FormatUint(abs, 10)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	whole, frac := digits[:len(digits)-scale], digits[len(digits)-scale:]

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(groupThousands(whole))
	if scale > 0 {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	b.WriteByte(' ')
	b.WriteString(code)
	return b.String()
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
