package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateJoinCode_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := GenerateJoinCode()
		assert.Len(t, code, JoinCodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(joinCodeCharset, ch), "unexpected character %q in code %s", ch, code)
		}
	}
}

func TestGenerateJoinCode_NoAmbiguousCharacters(t *testing.T) {
	// I, O, 0 and 1 are excluded so codes read unambiguously.
	for _, forbidden := range "IO01" {
		assert.False(t, strings.ContainsRune(joinCodeCharset, forbidden), "charset must not contain %q", forbidden)
	}
}

func TestGenerateBulkCodes_Unique(t *testing.T) {
	codes := GenerateBulkCodes(200)
	assert.Len(t, codes, 200)

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
