package services

import (
	"testing"
	"time"

	"pulselink/internal/db"
	"pulselink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func likePost(t *testing.T, user models.User, post models.Post, at time.Time) {
	t.Helper()
	require.NoError(t, db.DB.Create(&models.PostLike{
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: at,
	}).Error)
}

func likeComment(t *testing.T, user models.User, comment models.Comment, at time.Time) {
	t.Helper()
	require.NoError(t, db.DB.Create(&models.CommentLike{
		UserID:    user.ID,
		CommentID: comment.ID,
		CreatedAt: at,
	}).Error)
}

func TestTopKarmaWeights(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	fans := []models.User{createUser(t, "f1"), createUser(t, "f2"), createUser(t, "f3")}

	post := createPost(t, alice, "post by alice")
	comment := createComment(t, post, alice, nil, "comment by alice", time.Now().Add(-time.Hour))

	now := time.Now()
	// 2 post likes (weight 5) + 3 comment likes (weight 1) = 13
	likePost(t, fans[0], post, now.Add(-time.Minute))
	likePost(t, fans[1], post, now.Add(-2*time.Minute))
	for _, fan := range fans {
		likeComment(t, fan, comment, now.Add(-3*time.Minute))
	}

	entries, err := TopKarma(now.Add(-24*time.Hour), 5)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, alice.ID, entries[0].UserID)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 13, entries[0].Karma)
}

func TestTopKarmaWindowFiltering(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")

	post := createPost(t, alice, "post by alice")

	now := time.Now()
	likePost(t, bob, post, now.Add(-30*time.Hour)) // outside the window

	entries, err := TopKarma(now.Add(-24*time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, entries) // zero-karma users are absent, not zero-scored

	// Widen the window and the like qualifies.
	entries, err = TopKarma(now.Add(-48*time.Hour), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KarmaWeightPostLike, entries[0].Karma)
}

func TestTopKarmaSingleStreamUsers(t *testing.T) {
	setupTestDB(t)
	// alice only earns from post likes, bob only from comment likes; both
	// must surface from the unioned aggregation.
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	carol := createUser(t, "carol")

	alicePost := createPost(t, alice, "by alice")
	bobPost := createPost(t, bob, "by bob")
	bobComment := createComment(t, bobPost, bob, nil, "by bob", time.Now().Add(-time.Hour))

	now := time.Now()
	likePost(t, carol, alicePost, now.Add(-time.Minute))
	likeComment(t, carol, bobComment, now.Add(-time.Minute))

	entries, err := TopKarma(now.Add(-24*time.Hour), 5)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, alice.ID, entries[0].UserID)
	assert.Equal(t, 5, entries[0].Karma)
	assert.Equal(t, bob.ID, entries[1].UserID)
	assert.Equal(t, 1, entries[1].Karma)
}

func TestTopKarmaOrderLimitAndTieBreak(t *testing.T) {
	setupTestDB(t)
	first := createUser(t, "first")
	second := createUser(t, "second")
	third := createUser(t, "third")
	voter := createUser(t, "voter")
	voter2 := createUser(t, "voter2")

	now := time.Now()

	// first: 10 karma, second and third: 5 each (a tie).
	firstPost := createPost(t, first, "p")
	likePost(t, voter, firstPost, now.Add(-time.Minute))
	likePost(t, voter2, firstPost, now.Add(-time.Minute))

	secondPost := createPost(t, second, "p")
	likePost(t, voter, secondPost, now.Add(-time.Minute))

	thirdPost := createPost(t, third, "p")
	likePost(t, voter, thirdPost, now.Add(-time.Minute))

	entries, err := TopKarma(now.Add(-24*time.Hour), 5)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, first.ID, entries[0].UserID)
	// Tied users order by ascending user id.
	assert.Equal(t, second.ID, entries[1].UserID)
	assert.Equal(t, third.ID, entries[2].UserID)

	// Limit truncates after ordering.
	top2, err := TopKarma(now.Add(-24*time.Hour), 2)
	require.NoError(t, err)
	require.Len(t, top2, 2)
	assert.Equal(t, first.ID, top2[0].UserID)
	assert.Equal(t, second.ID, top2[1].UserID)
}

func TestTopKarmaCountsEachLikeOnce(t *testing.T) {
	setupTestDB(t)
	// A user with several posts, comments and likers must not have like
	// rows cross-multiplied by unrelated rows.
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	carol := createUser(t, "carol")

	p1 := createPost(t, alice, "p1")
	p2 := createPost(t, alice, "p2")
	c1 := createComment(t, p1, alice, nil, "c1", time.Now().Add(-time.Hour))
	c2 := createComment(t, p2, alice, nil, "c2", time.Now().Add(-time.Hour))

	now := time.Now()
	likePost(t, bob, p1, now.Add(-time.Minute))
	likePost(t, carol, p2, now.Add(-time.Minute))
	likeComment(t, bob, c1, now.Add(-time.Minute))
	likeComment(t, carol, c2, now.Add(-time.Minute))

	entries, err := TopKarma(now.Add(-24*time.Hour), 5)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, 2*KarmaWeightPostLike+2*KarmaWeightCommentLike, entries[0].Karma)
}
