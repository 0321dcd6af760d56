package services

import (
	"testing"
	"time"

	"password-heist-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamFinished(id string, start time.Time, elapsed time.Duration, hints int) models.Team {
	done := start.Add(elapsed)
	return models.Team{
		ID:             id,
		Status:         models.TeamStatusActive,
		RoundStartTime: &start,
		CompletedAt:    &done,
		HintsUsedRound: hints,
	}
}

func entryFor(t *testing.T, entries []models.LeaderboardEntry, teamID string) models.LeaderboardEntry {
	t.Helper()
	for _, e := range entries {
		if e.TeamID == teamID {
			return e
		}
	}
	t.Fatalf("no leaderboard entry for team %s", teamID)
	return models.LeaderboardEntry{}
}

func TestBuildLeaderboard_OrdersByScoreDescending(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(20 * time.Minute)

	teams := []models.Team{
		teamFinished("slow", start, 300*time.Second, 0),
		teamFinished("fast", start, 60*time.Second, 0),
		teamFinished("mid", start, 120*time.Second, 0),
	}

	entries := buildLeaderboard(teams, "puzzle-1", now)
	require.Len(t, entries, 3)

	assert.Equal(t, "fast", entries[0].TeamID)
	assert.Equal(t, "mid", entries[1].TeamID)
	assert.Equal(t, "slow", entries[2].TeamID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestBuildLeaderboard_TiedScoresShareRankDensely(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(20 * time.Minute)

	teams := []models.Team{
		teamFinished("a", start, 100*time.Second, 0),
		teamFinished("b", start, 100*time.Second, 0),
		teamFinished("c", start, 200*time.Second, 0),
	}

	entries := buildLeaderboard(teams, "puzzle-1", now)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entryFor(t, entries, "a").Rank)
	assert.Equal(t, 1, entryFor(t, entries, "b").Rank)
	// Dense ranking: the next distinct score takes rank 2, not 3.
	assert.Equal(t, 2, entryFor(t, entries, "c").Rank)
}

func TestBuildLeaderboard_UnfinishedTeamsScoreZero(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(10 * time.Minute)

	unfinished := models.Team{
		ID:             "dnf",
		Status:         models.TeamStatusActive,
		RoundStartTime: &start,
		HintsUsedRound: 2,
	}
	teams := []models.Team{
		teamFinished("winner", start, 90*time.Second, 1),
		unfinished,
	}

	entries := buildLeaderboard(teams, "puzzle-1", now)
	require.Len(t, entries, 2)

	dnf := entryFor(t, entries, "dnf")
	assert.False(t, dnf.Completed)
	assert.Equal(t, 0.0, dnf.Score)
	assert.Equal(t, 600, dnf.TimeSeconds)
	assert.Equal(t, 2, dnf.Rank)
}

func TestBuildLeaderboard_NeverStartedUsesSentinelTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	teams := []models.Team{{ID: "ghost", Status: models.TeamStatusActive}}
	entries := buildLeaderboard(teams, "puzzle-1", now)
	require.Len(t, entries, 1)

	assert.Equal(t, models.DidNotFinishSeconds, entries[0].TimeSeconds)
	assert.Equal(t, 0.0, entries[0].Score)
	assert.False(t, entries[0].Completed)
}

func TestBuildLeaderboard_EmptyField(t *testing.T) {
	entries := buildLeaderboard(nil, "puzzle-1", time.Now().UTC())
	assert.Empty(t, entries)
}

func TestPartitionTeams_EveryTeamLandsInOneBucket(t *testing.T) {
	active := []string{"a", "b", "c", "d"}
	qualified, eliminated := partitionTeams(active, []string{"b", "d"})

	assert.Equal(t, []string{"b", "d"}, qualified)
	assert.Equal(t, []string{"a", "c"}, eliminated)
	assert.Len(t, qualified, 2)
	assert.Len(t, eliminated, 2)
}

func TestPartitionTeams_UnknownQualifierIDsAreIgnored(t *testing.T) {
	qualified, eliminated := partitionTeams([]string{"a", "b"}, []string{"b", "zzz"})

	assert.Equal(t, []string{"b"}, qualified)
	assert.Equal(t, []string{"a"}, eliminated)
}

func TestPartitionTeams_NoQualifiers(t *testing.T) {
	qualified, eliminated := partitionTeams([]string{"a", "b"}, nil)

	assert.Empty(t, qualified)
	assert.Equal(t, []string{"a", "b"}, eliminated)
}
