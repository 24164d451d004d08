package voting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/wouldwatch/internal/models"
	"github.com/desertthunder/wouldwatch/internal/shared"
)

func candidates(n int) []models.Movie {
	movies := make([]models.Movie, n)
	for i := range movies {
		movies[i] = models.Movie{ID: int64(100 + i), Title: "Movie"}
	}
	return movies
}

func loaded(t *testing.T, n int) *Machine {
	t.Helper()
	m := NewMachine()
	gen, err := m.StartSearch("heist")
	require.NoError(t, err)
	require.True(t, m.SearchSucceeded(gen, candidates(n)))
	return m
}

func vote(t *testing.T, m *Machine, d models.Direction, match bool) uint64 {
	t.Helper()
	b, ok := m.BeginVote(d)
	require.True(t, ok)
	return m.VoteSucceeded(b, match)
}

func TestMachineSearch(t *testing.T) {
	t.Run("starts idle", func(t *testing.T) {
		m := NewMachine()
		assert.Equal(t, Idle, m.State())
		_, ok := m.Current()
		assert.False(t, ok)
		assert.Empty(t, m.Progress())
	})

	t.Run("blank query is rejected without transition", func(t *testing.T) {
		m := NewMachine()
		_, err := m.StartSearch("   ")
		assert.ErrorIs(t, err, shared.ErrValidation)

		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "query", verr.Field)
		assert.Equal(t, Idle, m.State())
	})

	t.Run("results enter voting at position zero", func(t *testing.T) {
		m := loaded(t, 3)
		assert.Equal(t, Voting, m.State())
		assert.Equal(t, 0, m.Position())
		assert.Equal(t, "heist", m.Query())
		assert.Equal(t, "Movie 1 of 3", m.Progress())

		current, ok := m.Current()
		require.True(t, ok)
		assert.Equal(t, int64(100), current.ID)
	})

	t.Run("empty results exhaust", func(t *testing.T) {
		m := loaded(t, 0)
		assert.Equal(t, Exhausted, m.State())
	})

	t.Run("new search resets position", func(t *testing.T) {
		m := loaded(t, 3)
		vote(t, m, models.Yes, false)
		vote(t, m, models.No, false)
		require.Equal(t, 2, m.Position())

		gen, err := m.StartSearch("comedy")
		require.NoError(t, err)
		assert.Equal(t, Searching, m.State())
		require.True(t, m.SearchSucceeded(gen, candidates(5)))

		assert.Equal(t, 0, m.Position())
		assert.Equal(t, 5, m.Len())
		assert.Equal(t, Voting, m.State())
	})

	t.Run("search from exhausted", func(t *testing.T) {
		m := loaded(t, 1)
		vote(t, m, models.Yes, false)
		require.Equal(t, Exhausted, m.State())

		gen, err := m.StartSearch("more")
		require.NoError(t, err)
		require.True(t, m.SearchSucceeded(gen, candidates(2)))
		assert.Equal(t, Voting, m.State())
	})

	t.Run("stale results are ignored", func(t *testing.T) {
		m := NewMachine()
		first, _ := m.StartSearch("first")
		second, _ := m.StartSearch("second")

		assert.False(t, m.SearchSucceeded(first, candidates(9)))
		assert.Equal(t, Searching, m.State())

		require.True(t, m.SearchSucceeded(second, candidates(2)))
		assert.Equal(t, 2, m.Len())

		assert.False(t, m.SearchSucceeded(first, candidates(9)))
		assert.Equal(t, 2, m.Len())
	})

	t.Run("failure keeps the previous queue", func(t *testing.T) {
		m := loaded(t, 3)
		vote(t, m, models.Yes, false)

		gen, _ := m.StartSearch("broken")
		boom := errors.New("search unavailable")
		require.True(t, m.SearchFailed(gen, boom))

		assert.Equal(t, Voting, m.State())
		assert.Equal(t, 1, m.Position())
		assert.Equal(t, 3, m.Len())
		assert.Equal(t, boom, m.Err())
	})

	t.Run("failure without a queue returns to idle", func(t *testing.T) {
		m := NewMachine()
		gen, _ := m.StartSearch("broken")
		require.True(t, m.SearchFailed(gen, errors.New("down")))
		assert.Equal(t, Idle, m.State())
		assert.Error(t, m.Err())
	})

	t.Run("failure after exhaustion stays exhausted", func(t *testing.T) {
		m := loaded(t, 1)
		vote(t, m, models.No, false)

		gen, _ := m.StartSearch("again")
		require.True(t, m.SearchFailed(gen, errors.New("down")))
		assert.Equal(t, Exhausted, m.State())
	})

	t.Run("stale failure is ignored", func(t *testing.T) {
		m := NewMachine()
		old, _ := m.StartSearch("old")
		current, _ := m.StartSearch("new")

		assert.False(t, m.SearchFailed(old, errors.New("late")))
		assert.NoError(t, m.Err())
		require.True(t, m.SearchSucceeded(current, candidates(1)))
	})

	t.Run("next attempt clears the inline error", func(t *testing.T) {
		m := NewMachine()
		gen, _ := m.StartSearch("x")
		m.SearchFailed(gen, errors.New("down"))
		require.Error(t, m.Err())

		_, err := m.StartSearch("y")
		require.NoError(t, err)
		assert.NoError(t, m.Err())
	})
}

func TestMachineVote(t *testing.T) {
	t.Run("three candidates yes no yes", func(t *testing.T) {
		m := loaded(t, 3)

		var states []State
		var positions []int
		states = append(states, m.State())
		positions = append(positions, m.Position())

		for _, d := range []models.Direction{models.Yes, models.No, models.Yes} {
			vote(t, m, d, false)
			states = append(states, m.State())
			positions = append(positions, m.Position())
		}

		assert.Equal(t, []State{Voting, Voting, Voting, Exhausted}, states)
		assert.Equal(t, []int{0, 1, 2, 3}, positions)
	})

	t.Run("position is min of votes and queue length", func(t *testing.T) {
		for n := 0; n <= 6; n++ {
			m := loaded(t, 4)
			for i := 0; i < n; i++ {
				if b, ok := m.BeginVote(models.Yes); ok {
					m.VoteSucceeded(b, false)
				}
			}
			assert.Equal(t, min(n, 4), m.Position(), "after %d votes", n)
			if n >= 4 {
				assert.Equal(t, Exhausted, m.State())
			}
		}
	})

	t.Run("vote outside voting is a no-op", func(t *testing.T) {
		m := NewMachine()
		_, ok := m.BeginVote(models.Yes)
		assert.False(t, ok)
		assert.Equal(t, Idle, m.State())

		m = loaded(t, 0)
		_, ok = m.BeginVote(models.Yes)
		assert.False(t, ok)
		assert.False(t, m.Busy())
	})

	t.Run("in-flight vote suppresses further votes", func(t *testing.T) {
		m := loaded(t, 3)
		first, ok := m.BeginVote(models.Yes)
		require.True(t, ok)
		assert.True(t, m.Busy())

		_, ok = m.BeginVote(models.No)
		assert.False(t, ok)

		m.VoteSucceeded(first, false)
		assert.False(t, m.Busy())
		assert.Equal(t, 1, m.Position())
	})

	t.Run("failed vote keeps position", func(t *testing.T) {
		m := loaded(t, 3)
		b, _ := m.BeginVote(models.Yes)
		boom := errors.New("Failed to submit vote")

		require.True(t, m.VoteFailed(b, boom))
		assert.Equal(t, 0, m.Position())
		assert.Equal(t, Voting, m.State())
		assert.False(t, m.Busy())
		assert.Equal(t, boom, m.Err())

		retry, ok := m.BeginVote(models.Yes)
		require.True(t, ok)
		assert.NoError(t, m.Err())
		assert.Equal(t, b.Movie.ID, retry.Movie.ID)
	})

	t.Run("ballot carries the request body", func(t *testing.T) {
		m := loaded(t, 2)
		b, _ := m.BeginVote(models.No)
		assert.Equal(t, models.Vote{MediaID: 100, Vote: models.No}, b.Vote())
	})

	t.Run("vote in flight stays busy across a new search", func(t *testing.T) {
		m := loaded(t, 3)
		b, _ := m.BeginVote(models.Yes)

		gen, _ := m.StartSearch("other")
		assert.True(t, m.Busy())
		require.True(t, m.SearchSucceeded(gen, candidates(2)))
		assert.True(t, m.Busy())

		_, ok := m.BeginVote(models.No)
		assert.False(t, ok, "new queue waits for the earlier vote")

		id := m.VoteSucceeded(b, true)
		assert.NotZero(t, id, "a match on the replaced queue still flashes")
		assert.True(t, m.Flashing())
		assert.Equal(t, 0, m.Position())
		assert.False(t, m.Busy())

		next, ok := m.BeginVote(models.No)
		require.True(t, ok)
		assert.Equal(t, int64(100), next.Movie.ID)
	})

	t.Run("failed search after a vote does not repeat the candidate", func(t *testing.T) {
		m := loaded(t, 2)
		b, _ := m.BeginVote(models.Yes)

		gen, _ := m.StartSearch("heat")
		require.True(t, m.SearchFailed(gen, errors.New("down")))
		assert.Equal(t, Voting, m.State())
		assert.True(t, m.Busy())

		_, ok := m.BeginVote(models.Yes)
		assert.False(t, ok)

		assert.Zero(t, m.VoteSucceeded(b, false))
		assert.Equal(t, 1, m.Position())

		next, ok := m.BeginVote(models.Yes)
		require.True(t, ok)
		assert.NotEqual(t, b.Movie.ID, next.Movie.ID)
	})

	t.Run("vote resolving during a search advances the installed queue", func(t *testing.T) {
		m := loaded(t, 1)
		b, _ := m.BeginVote(models.Yes)

		gen, _ := m.StartSearch("again")
		m.VoteSucceeded(b, false)
		assert.Equal(t, Searching, m.State())

		require.True(t, m.SearchFailed(gen, errors.New("down")))
		assert.Equal(t, Exhausted, m.State())
	})

	t.Run("a ballot resolves once", func(t *testing.T) {
		m := loaded(t, 3)
		b, _ := m.BeginVote(models.Yes)

		assert.NotZero(t, m.VoteSucceeded(b, true))
		assert.Zero(t, m.VoteSucceeded(b, true))
		assert.False(t, m.VoteFailed(b, errors.New("late")))
		assert.Equal(t, 1, m.Position())
	})
}

func TestMachineFlash(t *testing.T) {
	t.Run("match raises a flash independent of advance", func(t *testing.T) {
		m := loaded(t, 2)
		id := vote(t, m, models.Yes, true)

		assert.NotZero(t, id)
		assert.True(t, m.Flashing())
		assert.Equal(t, id, m.FlashID())
		assert.Equal(t, 1, m.Position())

		m.ClearFlash(id)
		assert.False(t, m.Flashing())
	})

	t.Run("match on the last candidate still flashes", func(t *testing.T) {
		m := loaded(t, 1)
		id := vote(t, m, models.Yes, true)
		assert.Equal(t, Exhausted, m.State())
		assert.True(t, m.Flashing())
		m.ClearFlash(id)
		assert.False(t, m.Flashing())
	})

	t.Run("no match no flash", func(t *testing.T) {
		m := loaded(t, 2)
		assert.Zero(t, vote(t, m, models.Yes, false))
		assert.False(t, m.Flashing())
	})

	t.Run("each occurrence gets its own window", func(t *testing.T) {
		m := loaded(t, 3)
		first := vote(t, m, models.Yes, true)
		second := vote(t, m, models.Yes, true)
		require.NotEqual(t, first, second)

		m.ClearFlash(first)
		assert.True(t, m.Flashing(), "clearing the first window must not hide the second")

		m.ClearFlash(second)
		assert.False(t, m.Flashing())

		m.ClearFlash(0)
		assert.False(t, m.Flashing())
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "SEARCHING", Searching.String())
	assert.Equal(t, "VOTING", Voting.String())
	assert.Equal(t, "EXHAUSTED", Exhausted.String())
}
