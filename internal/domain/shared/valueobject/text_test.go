package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Film Clear", NormalizeText("  Film \t  Clear\n"))
	assert.Equal(t, "", NormalizeText("   "))
	// decomposed e + combining acute becomes the precomposed rune
	assert.Equal(t, "caf\u00e9", NormalizeText("cafe\u0301"))
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "film clear", NormalizeKey(" FILM  Clear "))
	assert.True(t, EqualKey("Transparente", "TRANSPARENTE "))
	assert.False(t, EqualKey("Clear", "Clean"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Lot CONSUMED on 2024-01-02", "consumed"))
	assert.True(t, ContainsFold("Nonconforming", "nonconforming"))
	assert.False(t, ContainsFold("available", "consumed"))
}
