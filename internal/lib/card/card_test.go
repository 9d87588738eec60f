package card

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidNumber(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"4242 4242 4242 4242", true},
		{"4242424242424242", true},
		{"4242\t4242 4242\n4242", true},
		{"1234", false},
		{"4242 4242 4242 424", false},
		{"4242 4242 4242 42421", false},
		{"4242-4242-4242-4242", false},
		{"abcd efgh ijkl mnop", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidNumber(tt.number))
		})
	}
}

func TestValidExpiry(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		month string
		year  string
		want  bool
	}{
		{"expired long ago", "01", "20", false},
		{"far future", "12", "30", true},
		{"current month", "06", "25", true},
		{"previous month", "05", "25", false},
		{"next year", "01", "26", true},
		{"four digit year", "07", "2025", true},
		{"month zero", "00", "30", false},
		{"month thirteen", "13", "30", false},
		{"three digit year", "12", "203", false},
		{"letters", "ab", "30", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidExpiry(tt.month, tt.year, now))
		})
	}
}

func TestValidCVC(t *testing.T) {
	assert.True(t, ValidCVC("123"))
	assert.True(t, ValidCVC("1234"))
	assert.False(t, ValidCVC("12"))
	assert.False(t, ValidCVC("12345"))
	assert.False(t, ValidCVC("12a"))
	assert.False(t, ValidCVC(""))
}

func TestLast4AndMask(t *testing.T) {
	assert.Equal(t, "4242", Last4("4000 0566 5566 4242"))
	assert.Equal(t, "12", Last4("12"))
	assert.Equal(t, "•••• •••• •••• 4242", Mask("4242"))
	assert.Equal(t, "", Mask(""))
}
