package services

import (
	"testing"

	"community-hub-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel(t *testing.T) {
	t.Run("TableBoundaries", func(t *testing.T) {
		cases := []struct {
			points int
			level  int
		}{
			{0, 1},
			{9, 1},
			{10, 2},
			{29, 2},
			{30, 3},
			{70, 4},
			{150, 5},
			{300, 6},
			{600, 7},
			{1200, 8},
			{2499, 8},
			{2500, 9},
			{999999, 9},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.level, CalculateLevel(tc.points), "points=%d", tc.points)
		}
	})

	t.Run("MonotonicNonDecreasing", func(t *testing.T) {
		prev := CalculateLevel(0)
		for points := 1; points <= 3000; points++ {
			level := CalculateLevel(points)
			require.GreaterOrEqual(t, level, prev, "points=%d", points)
			prev = level
		}
	})
}

func TestPointsForLevel(t *testing.T) {
	v, ok := PointsForLevel(1)
	require.True(t, ok)
	assert.Equal(t, 0, v)

	v, ok = PointsForLevel(9)
	require.True(t, ok)
	assert.Equal(t, 2500, v)

	_, ok = PointsForLevel(10)
	assert.False(t, ok)
	_, ok = PointsForLevel(0)
	assert.False(t, ok)
}

func TestPointsForNextLevel(t *testing.T) {
	v, ok := PointsForNextLevel(1)
	require.True(t, ok)
	assert.Equal(t, 10, v)

	// No level beyond the top of the table
	_, ok = PointsForNextLevel(9)
	assert.False(t, ok)
}

func TestAwardPoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewPointsService(db)

	_, err := svc.EnsurePointsState("user-1")
	require.NoError(t, err)

	t.Run("AwardAndLevelUp", func(t *testing.T) {
		res, err := svc.AwardPoints("user-1", 9, "post_like_received", "actor-1", models.PointSourcePost, "post-1")
		require.NoError(t, err)
		assert.Equal(t, 9, res.NewPoints)
		assert.Equal(t, 1, res.NewLevel)
		assert.False(t, res.LeveledUp)

		res, err = svc.AwardPoints("user-1", 1, "post_like_received", "actor-2", models.PointSourcePost, "post-1")
		require.NoError(t, err)
		assert.Equal(t, 10, res.NewPoints)
		assert.Equal(t, 2, res.NewLevel)
		assert.True(t, res.LeveledUp)
	})

	t.Run("StateMatchesLevelInvariant", func(t *testing.T) {
		var state models.UserPointsState
		require.NoError(t, db.Where("external_user_id = ?", "user-1").First(&state).Error)
		assert.Equal(t, CalculateLevel(state.Points), state.Level)
	})

	t.Run("EveryEventRecorded", func(t *testing.T) {
		var count int64
		require.NoError(t, db.Model(&models.PointEvent{}).Where("user_id = ?", "user-1").Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})
}

func TestRevokePoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewPointsService(db)

	_, err := svc.EnsurePointsState("user-2")
	require.NoError(t, err)

	t.Run("FloorsAtZero", func(t *testing.T) {
		res, err := svc.RevokePoints("user-2", -50, "post_like_revoked", "actor-1", models.PointSourcePost, "post-1")
		require.NoError(t, err)
		assert.Equal(t, 0, res.NewPoints)
		assert.Equal(t, 1, res.NewLevel)
		assert.False(t, res.LeveledUp)
	})

	t.Run("NeverSignalsLevelUp", func(t *testing.T) {
		_, err := svc.AwardPoints("user-2", 100, "admin_grant", "", models.PointSourcePost, "")
		require.NoError(t, err)

		// Even a revoke that leaves the user above a threshold reports no level-up
		res, err := svc.RevokePoints("user-2", -5, "post_like_revoked", "actor-1", models.PointSourcePost, "post-2")
		require.NoError(t, err)
		assert.False(t, res.LeveledUp)
		assert.Equal(t, 95, res.NewPoints)
		assert.Equal(t, CalculateLevel(95), res.NewLevel)
	})

	t.Run("InvariantHoldsAcrossMixedSequence", func(t *testing.T) {
		deltas := []int{5, -3, -200, 40, 40, -1, 7, -90, 2500}
		for _, d := range deltas {
			if d >= 0 {
				_, err = svc.AwardPoints("user-2", d, "mixed", "", models.PointSourcePost, "")
			} else {
				_, err = svc.RevokePoints("user-2", d, "mixed", "", models.PointSourcePost, "")
			}
			require.NoError(t, err)

			var state models.UserPointsState
			require.NoError(t, db.Where("external_user_id = ?", "user-2").First(&state).Error)
			assert.GreaterOrEqual(t, state.Points, 0)
			assert.Equal(t, CalculateLevel(state.Points), state.Level)
		}
	})
}

func TestAwardPointsCreatesMissingState(t *testing.T) {
	db := newTestDB(t)
	svc := NewPointsService(db)

	// Member exists exactly as the sync worker leaves it after a backfill
	// race: snapshot row present, no points state yet.
	seedMember(t, db, "fresh", "fresh")

	res, err := svc.AwardPoints("fresh", 5, "post_like_received", "actor-1", models.PointSourcePost, "post-1")
	require.NoError(t, err)
	assert.Equal(t, 5, res.NewPoints)
	assert.Equal(t, 1, res.NewLevel)

	var state models.UserPointsState
	require.NoError(t, db.Where("external_user_id = ?", "fresh").First(&state).Error,
		"expected a points state row for an existing member")
	assert.Equal(t, 5, state.Points)
	assert.Equal(t, 1, state.Level)

	// Ledger and running total agree from the very first event
	var events int64
	require.NoError(t, db.Model(&models.PointEvent{}).Where("user_id = ?", "fresh").Count(&events).Error)
	assert.Equal(t, int64(1), events)

	t.Run("DeletedMemberStaysNeutral", func(t *testing.T) {
		seedMember(t, db, "gone", "gone")
		require.NoError(t, db.Where("external_user_id = ?", "gone").Delete(&models.Member{}).Error)

		res, err := svc.AwardPoints("gone", 5, "post_like_received", "actor-1", models.PointSourcePost, "post-1")
		require.NoError(t, err)
		assert.Equal(t, 0, res.NewPoints)

		var count int64
		require.NoError(t, db.Model(&models.UserPointsState{}).
			Where("external_user_id = ?", "gone").Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}

func TestAwardPointsMissingUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewPointsService(db)

	// No state row exists, e.g. account deleted while the like was in flight
	res, err := svc.AwardPoints("ghost", 10, "post_like_received", "actor-1", models.PointSourcePost, "post-1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.NewPoints)
	assert.Equal(t, 1, res.NewLevel)
	assert.False(t, res.LeveledUp)
}

func TestLeaderboard(t *testing.T) {
	db := newTestDB(t)
	svc := NewPointsService(db)

	seedMember(t, db, "alice", "alice")
	seedMember(t, db, "bob", "bob")
	seedMember(t, db, "carol", "carol")

	for _, u := range []string{"alice", "bob", "carol"} {
		_, err := svc.EnsurePointsState(u)
		require.NoError(t, err)
	}
	_, err := svc.AwardPoints("alice", 50, "seed", "", models.PointSourcePost, "")
	require.NoError(t, err)
	_, err = svc.AwardPoints("bob", 100, "seed", "", models.PointSourcePost, "")
	require.NoError(t, err)
	_, err = svc.AwardPoints("carol", 10, "seed", "", models.PointSourcePost, "")
	require.NoError(t, err)

	entries, err := svc.Leaderboard(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 100, entries[0].Points)
	assert.Equal(t, "alice", entries[1].Username)

	t.Run("DeletedMembersExcluded", func(t *testing.T) {
		require.NoError(t, db.Where("external_user_id = ?", "bob").Delete(&models.Member{}).Error)

		entries, err := svc.Leaderboard(10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "alice", entries[0].Username)
	})
}
