package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPaymentLink(t *testing.T) {
	id := uuid.MustParse("8a2b1f64-9c3d-4e5f-8a7b-1c2d3e4f5a6b")

	b := NewLinkBuilder("https://pay.example.com")
	assert.Equal(t, "https://pay.example.com/pay/8a2b1f64-9c3d-4e5f-8a7b-1c2d3e4f5a6b", b.PaymentLink(id))
}

func TestPaymentLinkTrimsTrailingSlash(t *testing.T) {
	id := uuid.MustParse("8a2b1f64-9c3d-4e5f-8a7b-1c2d3e4f5a6b")

	b := NewLinkBuilder("https://pay.example.com/")
	assert.Equal(t, "https://pay.example.com/pay/8a2b1f64-9c3d-4e5f-8a7b-1c2d3e4f5a6b", b.PaymentLink(id))
}
