package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-recon/internal/reconcile/rules"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(rules.Default().Aliases)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"exact alias", "Moria Surgical", "moria"},
		{"case-insensitive alias", "MORIA SURGICAL", "moria"},
		{"extra spaces", "  Moria   Surgical ", "moria"},
		{"lower-case alias with diacritics", "oculus optikgeräte", "oculus"},
		{"unknown falls back to slug", "Lampe à Fente & Co", "lampe-a-fente-co"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizer_Deterministic(t *testing.T) {
	aliases := map[string]string{"Acme": "acme-a", "ACME": "acme-b"}
	first := NewNormalizer(aliases).Normalize("acme")
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, NewNormalizer(aliases).Normalize("acme"))
	}
	// точное совпадение важнее регистронезависимого
	assert.Equal(t, "acme-a", NewNormalizer(aliases).Normalize("Acme"))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "lampe a fente 87 mm", normalizeText("  Lampe à FENTE, 8/7 mm! "))
	assert.Equal(t, "", normalizeText("  -- "))
}
