package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownEffectType(t *testing.T) {
	assert.True(t, KnownEffectType(EffectExtraTry))
	assert.True(t, KnownEffectType(EffectFreeHint))
	assert.True(t, KnownEffectType(EffectSurviveElimination))

	assert.False(t, KnownEffectType(""))
	assert.False(t, KnownEffectType("EXTRA_TRY"))
	assert.False(t, KnownEffectType("double_points"))
}
