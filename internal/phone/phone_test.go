package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"uk mobile trunk", "07911123456", "+44 (0) 7911 123 456"},
		{"uk mobile country code", "447911123456", "+44 (0) 7911 123 456"},
		{"uk mobile with plus and spaces", "+44 7911 123 456", "+44 (0) 7911 123 456"},
		{"uk mobile with punctuation", "(07911) 123-456", "+44 (0) 7911 123 456"},
		{"london landline", "02079460123", "+44 (0) 207 9460 123"},
		{"landline country code", "442079460123", "+44 (0) 207 9460 123"},
		{"03 number", "03001234567", "+44 (0) 300 1234 567"},
		{"landline wrong length passes through", "0207946012", "0207946012"},
		{"mobile wrong length passes through", "0791112345", "0791112345"},
		{"non-uk number passes through", "+1 212 555 0100", "+1 212 555 0100"},
		{"garbage passes through", "invalid-phone", "invalid-phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
