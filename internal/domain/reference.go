package domain

import (
	"crypto/rand"
)

// referenceAlphabet is the 36-symbol alphabet used for invoice references.
const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReferenceLength is the number of symbols in an invoice reference.
const ReferenceLength = 8

// NewReference generates an 8-symbol opaque invoice reference.
// References are not globally unique by construction; the invoice store's
// unique index is the source of truth and callers regenerate on conflict.
func NewReference() string {
	buf := make([]byte, ReferenceLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the host is broken; nothing sensible to do.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf)
}
