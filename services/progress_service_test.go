package services

import (
	"testing"
	"time"

	"password-heist-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClue() models.Clue {
	return models.Clue{
		ID:                     "clue-1",
		PuzzleID:               "puzzle-1",
		CharacterPosition:      0,
		ExpectedAnswer:         "C",
		MaxTries:               3,
		LockoutDurationSeconds: 30,
	}
}

func intPtr(v int) *int { return &v }

func TestGuessGate_ClosedRoundRejectsGuess(t *testing.T) {
	// A guess that raced end-game sees is_live already false and must be
	// turned away, never applied against the finished standings.
	team := models.Team{ID: "t1", Status: models.TeamStatusActive}
	puzzle := models.Puzzle{ID: "p1", IsActive: true, IsLive: false}

	status, code := guessGate(team, puzzle, nil)
	assert.Equal(t, 409, status)
	assert.Equal(t, "round_not_live", code)
}

func TestGuessGate_Rejections(t *testing.T) {
	now := time.Now().UTC()
	livePuzzle := models.Puzzle{ID: "p1", IsActive: true, IsLive: true}

	tests := []struct {
		name         string
		team         models.Team
		cluePosition *int
		wantStatus   int
		wantCode     string
	}{
		{
			name:       "eliminated team",
			team:       models.Team{ID: "t1", IsEliminated: true},
			wantStatus: 409,
			wantCode:   "team_eliminated",
		},
		{
			name:       "round already finished",
			team:       models.Team{ID: "t1", CompletedAt: &now, FinalAnswerSubmitted: true},
			wantStatus: 409,
			wantCode:   "round_already_finished",
		},
		{
			name:         "stale clue position",
			team:         models.Team{ID: "t1", CurrentCharacterIndex: 3},
			cluePosition: intPtr(1),
			wantStatus:   409,
			wantCode:     "position_mismatch",
		},
		{
			name:         "matching clue position passes",
			team:         models.Team{ID: "t1", CurrentCharacterIndex: 3},
			cluePosition: intPtr(3),
		},
		{
			name: "clean team passes",
			team: models.Team{ID: "t1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := guessGate(tt.team, livePuzzle, tt.cluePosition)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestResolveExhaustion_ShieldSuppressesElimination(t *testing.T) {
	now := time.Now().UTC()

	outcome := resolveExhaustion(true, now)
	assert.True(t, outcome.ShieldConsumed)
	assert.False(t, outcome.Eliminated)
	assert.Nil(t, outcome.EliminatedAt)
}

func TestResolveExhaustion_NoShieldEliminatesWithTimestamp(t *testing.T) {
	now := time.Now().UTC()

	outcome := resolveExhaustion(false, now)
	assert.False(t, outcome.ShieldConsumed)
	assert.True(t, outcome.Eliminated)
	require.NotNil(t, outcome.EliminatedAt)
	assert.Equal(t, now, *outcome.EliminatedAt)
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, "C", NormalizeAnswer("  c  "))
	assert.Equal(t, "C", NormalizeAnswer("C"))
	assert.Equal(t, "HELLO WORLD", NormalizeAnswer("hello world"))
	assert.Equal(t, "", NormalizeAnswer("   "))
}

func TestEvaluateGuess_CorrectIgnoresCaseAndWhitespace(t *testing.T) {
	now := time.Now().UTC()
	eval := evaluateGuess(models.TeamProgress{}, testClue(), "  c ", now)

	assert.Equal(t, outcomeCorrect, eval.Outcome)
	assert.Equal(t, 0, eval.TriesUsed)
	assert.Equal(t, 3, eval.TriesRemaining)
	assert.Nil(t, eval.LockedUntil)
}

func TestEvaluateGuess_WrongGuessesCountDown(t *testing.T) {
	now := time.Now().UTC()
	clue := testClue()
	progress := models.TeamProgress{}

	eval := evaluateGuess(progress, clue, "X", now)
	assert.Equal(t, outcomeWrong, eval.Outcome)
	assert.Equal(t, 1, eval.TriesUsed)
	assert.Equal(t, 2, eval.TriesRemaining)

	progress.TriesUsed = eval.TriesUsed
	eval = evaluateGuess(progress, clue, "Y", now)
	assert.Equal(t, outcomeWrong, eval.Outcome)
	assert.Equal(t, 2, eval.TriesUsed)
	assert.Equal(t, 1, eval.TriesRemaining)
}

func TestEvaluateGuess_ThirdWrongGuessExhaustsAndLocks(t *testing.T) {
	now := time.Now().UTC()
	clue := testClue()

	eval := evaluateGuess(models.TeamProgress{TriesUsed: 2}, clue, "Z", now)

	assert.Equal(t, outcomeExhausted, eval.Outcome)
	assert.Equal(t, 3, eval.TriesUsed)
	assert.Equal(t, 0, eval.TriesRemaining)
	require.NotNil(t, eval.LockedUntil)
	assert.Equal(t, now.Add(30*time.Second), *eval.LockedUntil)
}

func TestEvaluateGuess_ActiveLockRejectsGuess(t *testing.T) {
	now := time.Now().UTC()
	lockedUntil := now.Add(10 * time.Second)

	eval := evaluateGuess(models.TeamProgress{TriesUsed: 3, LockedUntil: &lockedUntil}, testClue(), "C", now)

	assert.Equal(t, outcomeLocked, eval.Outcome)
	assert.Equal(t, 0, eval.TriesRemaining)
	require.NotNil(t, eval.LockedUntil)
	assert.Equal(t, lockedUntil, *eval.LockedUntil)
}

func TestEvaluateGuess_ExpiredLockResetsTries(t *testing.T) {
	now := time.Now().UTC()
	lockedUntil := now.Add(-1 * time.Second)
	progress := models.TeamProgress{TriesUsed: 3, LockedUntil: &lockedUntil}

	// A wrong guess after the lock expired starts from a clean slate.
	eval := evaluateGuess(progress, testClue(), "X", now)
	assert.Equal(t, outcomeWrong, eval.Outcome)
	assert.Equal(t, 1, eval.TriesUsed)
	assert.Equal(t, 2, eval.TriesRemaining)
	assert.True(t, eval.LockExpired)

	// And a correct one solves it outright.
	eval = evaluateGuess(progress, testClue(), "c", now)
	assert.Equal(t, outcomeCorrect, eval.Outcome)
	assert.Equal(t, 0, eval.TriesUsed)
	assert.True(t, eval.LockExpired)
}

func TestEvaluateGuess_LockExpiringExactlyNowIsOpen(t *testing.T) {
	now := time.Now().UTC()
	lockedUntil := now
	progress := models.TeamProgress{TriesUsed: 3, LockedUntil: &lockedUntil}

	eval := evaluateGuess(progress, testClue(), "C", now)
	assert.Equal(t, outcomeCorrect, eval.Outcome)
	assert.True(t, eval.LockExpired)
}

func TestEvaluateGuess_CompletedIsTerminal(t *testing.T) {
	now := time.Now().UTC()
	progress := models.TeamProgress{TriesUsed: 1, Completed: true}

	for _, guess := range []string{"C", "wrong", ""} {
		eval := evaluateGuess(progress, testClue(), guess, now)
		assert.Equal(t, outcomeAlreadySolved, eval.Outcome, "guess=%q", guess)
		assert.Equal(t, 1, eval.TriesUsed)
	}
}

func TestEvaluateGuess_TriesRemainingNeverNegative(t *testing.T) {
	now := time.Now().UTC()
	clue := testClue()

	// tries_used beyond max can only come from legacy rows; remaining clamps.
	eval := evaluateGuess(models.TeamProgress{TriesUsed: 5, Completed: true}, clue, "C", now)
	assert.Equal(t, 0, eval.TriesRemaining)

	eval = evaluateGuess(models.TeamProgress{TriesUsed: 5}, clue, "C", now)
	assert.Equal(t, outcomeCorrect, eval.Outcome)
	assert.Equal(t, 0, eval.TriesRemaining)
}
