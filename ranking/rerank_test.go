// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/reelrank/models"
	"github.com/danielhkuo/reelrank/testutil"
)

func TestStartRerank_MoveToTop(t *testing.T) {
	pub := &recordingPublisher{}
	e, db := newTestEngine(t, WithPublisher(pub))
	userID, _ := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B", "C", "D", "E")
	ctx := context.Background()

	resp, err := e.StartRerank(ctx, userID, "D")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompare, resp.Status)
	assert.Equal(t, "B", resp.CompareWith.MovieID)

	resp, err = e.CompareRerank(ctx, userID, "D", resp.SessionToken)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompare, resp.Status)
	assert.Equal(t, "A", resp.CompareWith.MovieID)

	resp, err = e.CompareRerank(ctx, userID, "D", resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReranked, resp.Status)
	assert.Equal(t, 1, resp.Rank)

	assert.Equal(t, []string{"D", "A", "B", "C", "E"}, testutil.RankOrder(t, db, userID))
	assert.Equal(t, 0, e.Sessions().Len())

	require.Len(t, pub.changes, 1)
	assert.Equal(t, models.ActivityReranked, pub.changes[0].Kind)
	assert.Equal(t, "D", pub.changes[0].Entry.MovieID)
	assert.Equal(t, 1, pub.changes[0].Entry.Rank)
}

func TestStartRerank_ConsistentAnswersKeepOrder(t *testing.T) {
	pub := &recordingPublisher{}
	e, db := newTestEngine(t, WithPublisher(pub))
	userID, _ := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B", "C", "D", "E")
	ctx := context.Background()

	resp, err := e.StartRerank(ctx, userID, "C")
	require.NoError(t, err)
	assert.Equal(t, "B", resp.CompareWith.MovieID)

	resp, err = e.CompareRerank(ctx, userID, "B", resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "D", resp.CompareWith.MovieID)

	resp, err = e.CompareRerank(ctx, userID, "C", resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReranked, resp.Status)
	assert.Equal(t, 3, resp.Rank)

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, testutil.RankOrder(t, db, userID))
	require.Len(t, pub.changes, 1, "a rerank that lands in place is still an activity")
}

func TestStartRerank_MoveToBottom(t *testing.T) {
	e, db := newTestEngine(t)
	userID, _ := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B", "C")
	ctx := context.Background()

	resp, err := e.StartRerank(ctx, userID, "A")
	require.NoError(t, err)

	for resp.Status == models.StatusCompare {
		resp, err = e.CompareRerank(ctx, userID, resp.CompareWith.MovieID, resp.SessionToken)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, resp.Rank)
	assert.Equal(t, []string{"B", "C", "A"}, testutil.RankOrder(t, db, userID))
}

func TestStartRerank_SingleEntry(t *testing.T) {
	e, db := newTestEngine(t)
	userID, _ := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A")

	resp, err := e.StartRerank(context.Background(), userID, "A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReranked, resp.Status)
	assert.Equal(t, 1, resp.Rank)
	assert.Equal(t, 0, e.Sessions().Len())
}

func TestStartRerank_Errors(t *testing.T) {
	e, db := newTestEngine(t)
	userID, _ := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B")
	ctx := context.Background()

	_, err := e.StartRerank(ctx, userID, "")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = e.StartRerank(ctx, userID, "Z")
	assert.ErrorIs(t, err, ErrNotRanked)

	assert.Equal(t, 0, e.Sessions().Len())
}

func TestCompareRerank_SessionKindMismatch(t *testing.T) {
	e, db := newTestEngine(t)
	userID, _ := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B", "C")
	ctx := context.Background()

	insert, err := e.AddMovie(ctx, userID, movie("X"))
	require.NoError(t, err)

	_, err = e.CompareRerank(ctx, userID, "X", insert.SessionToken)
	assert.ErrorIs(t, err, ErrSessionKindMismatch)

	rerank, err := e.StartRerank(ctx, userID, "A")
	require.NoError(t, err)

	_, err = e.Compare(ctx, userID, "A", rerank.SessionToken)
	assert.ErrorIs(t, err, ErrSessionKindMismatch)

	_, err = e.CompareRerank(ctx, userID, "", rerank.SessionToken)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCompareRerank_NoSession(t *testing.T) {
	e, db := newTestEngine(t)
	userID, _ := testutil.CreateTestUser(t, db, "alice")

	_, err := e.CompareRerank(context.Background(), userID, "A", "")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestCompareRerank_WriteFailureKeepsSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := &flakyStore{Store: NewSQLStore(db), broken: true}
	e := NewEngine(store, NewSessionManager(time.Hour))
	userID, _ := testutil.CreateTestUser(t, db, "alice")
	testutil.SeedRankings(t, db, userID, "A", "B")
	ctx := context.Background()

	resp, err := e.StartRerank(ctx, userID, "B")
	require.NoError(t, err)
	require.Equal(t, "A", resp.CompareWith.MovieID)

	_, err = e.CompareRerank(ctx, userID, "B", resp.SessionToken)
	require.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, []string{"A", "B"}, testutil.RankOrder(t, db, userID))

	store.broken = false
	resp, err = e.CompareRerank(ctx, userID, "B", resp.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Rank)
	assert.Equal(t, []string{"B", "A"}, testutil.RankOrder(t, db, userID))
}

func TestStartRerank_EveryMoveLandsWithinLogSteps(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()

	for n := 2; n <= 8; n++ {
		titles := make([]string, n)
		for i := range titles {
			titles[i] = fmt.Sprintf("m%02d", i+1)
		}

		for from := 1; from <= n; from++ {
			for want := 1; want <= n; want++ {
				userID, _ := testutil.CreateTestUser(t, db, fmt.Sprintf("u-%d-%d-%d", n, from, want))
				testutil.SeedRankings(t, db, userID, titles...)
				subject := titles[from-1]

				resp, err := e.StartRerank(ctx, userID, subject)
				require.NoError(t, err)

				rank, steps := answerByTruth(t, resp, subject, from, want, e.CompareRerank, userID)
				assert.Equal(t, want, rank, "n=%d from=%d", n, from)

				bound := int(math.Ceil(math.Log2(float64(n))))
				assert.LessOrEqual(t, steps, bound, "n=%d from=%d want=%d", n, from, want)

				rest := make([]string, 0, n-1)
				for _, m := range titles {
					if m != subject {
						rest = append(rest, m)
					}
				}
				expected := append(append(append([]string{}, rest[:want-1]...), subject), rest[want-1:]...)
				assert.Equal(t, expected, testutil.RankOrder(t, db, userID))
			}
		}
	}
}
