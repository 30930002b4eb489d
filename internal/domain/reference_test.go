package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		assert.Len(t, ref, ReferenceLength)
		for _, r := range ref {
			assert.True(t, strings.ContainsRune(referenceAlphabet, r), "unexpected symbol %q", r)
		}
		seen[ref] = true
	}
	// Collisions across 100 draws from a 36^8 space would indicate a broken generator.
	assert.Greater(t, len(seen), 90)
}
