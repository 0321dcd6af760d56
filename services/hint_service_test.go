package services

import (
	"testing"

	"password-heist-system/models"

	"github.com/stretchr/testify/assert"
)

func TestHintGate_Rejections(t *testing.T) {
	puzzle := models.Puzzle{ID: "p1", MaxHints: 5}
	position := 2

	tests := []struct {
		name         string
		team         models.Team
		cluePosition *int
		wantStatus   int
		wantCode     string
	}{
		{
			name:       "no tokens left",
			team:       models.Team{ID: "t1", HintTokens: 0},
			wantStatus: 403,
			wantCode:   "no_tokens",
		},
		{
			name:       "round cap reached",
			team:       models.Team{ID: "t1", HintTokens: 3, HintsUsedRound: 5},
			wantStatus: 403,
			wantCode:   "round_cap_reached",
		},
		{
			name:         "stale clue position",
			team:         models.Team{ID: "t1", HintTokens: 3, CurrentCharacterIndex: 4},
			cluePosition: &position,
			wantStatus:   409,
			wantCode:     "position_mismatch",
		},
		{
			name:         "matching position with tokens passes",
			team:         models.Team{ID: "t1", HintTokens: 1, HintsUsedRound: 4, CurrentCharacterIndex: 2},
			cluePosition: &position,
		},
		{
			name: "omitted position passes",
			team: models.Team{ID: "t1", HintTokens: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := hintGate(tt.team, puzzle, tt.cluePosition)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestHintForLevel_PicksRequestedTier(t *testing.T) {
	clue := models.Clue{
		HintText1: "It is a vowel.",
		HintText2: "It appears twice in the word.",
		HintText3: "It is the letter E.",
	}

	assert.Equal(t, "It is a vowel.", hintForLevel(clue, 1))
	assert.Equal(t, "It appears twice in the word.", hintForLevel(clue, 2))
	assert.Equal(t, "It is the letter E.", hintForLevel(clue, 3))
}

func TestHintForLevel_BlankTierFallsBackToPlaceholder(t *testing.T) {
	clue := models.Clue{HintText1: "Only the first tier is set."}

	assert.Equal(t, "Only the first tier is set.", hintForLevel(clue, 1))
	assert.Equal(t, NoHintPlaceholder, hintForLevel(clue, 2))
	assert.Equal(t, NoHintPlaceholder, hintForLevel(clue, 3))
}

func TestHintForLevel_OutOfRangeLevelGetsPlaceholder(t *testing.T) {
	clue := models.Clue{HintText1: "first", HintText2: "second", HintText3: "third"}

	assert.Equal(t, NoHintPlaceholder, hintForLevel(clue, 0))
	assert.Equal(t, NoHintPlaceholder, hintForLevel(clue, 4))
}
