package services

import (
	"fmt"
	"testing"
	"time"

	"pulselink/internal/db"
	"pulselink/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	// foreign_keys stays off here: several tests seed the dangling and
	// cross-post parent rows the tree builder must tolerate.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	db.DB = conn
}

func createUser(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	require.NoError(t, db.DB.Create(&user).Error)
	return user
}

func createPost(t *testing.T, author models.User, content string) models.Post {
	t.Helper()
	post := models.Post{UserID: author.ID, Content: content}
	require.NoError(t, db.DB.Create(&post).Error)
	return post
}

func createComment(t *testing.T, post models.Post, author models.User, parentID *uint, content string, createdAt time.Time) models.Comment {
	t.Helper()
	comment := models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.DB.Create(&comment).Error)
	return comment
}

func TestBuildCommentTreePostNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := BuildCommentTree(12345)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestBuildCommentTreeEmpty(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	post := createPost(t, alice, "hello")

	roots, err := BuildCommentTree(post.ID)
	require.NoError(t, err)
	assert.Empty(t, roots)
	assert.NotNil(t, roots) // marshals as [], not null
}

func TestBuildCommentTreeNesting(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	post := createPost(t, alice, "hello")

	base := time.Now().Add(-time.Hour)
	c1 := createComment(t, post, bob, nil, "root one", base)
	c2 := createComment(t, post, alice, &c1.ID, "reply to one", base.Add(time.Minute))
	// c3 points at a comment id that does not exist
	missing := uint(9999)
	c3 := createComment(t, post, bob, &missing, "orphan", base.Add(2*time.Minute))

	roots, err := BuildCommentTree(post.ID)
	require.NoError(t, err)

	// Expected: roots = [c1 {children:[c2]}, c3]
	require.Len(t, roots, 2)
	assert.Equal(t, c1.ID, roots[0].ID)
	assert.Equal(t, c3.ID, roots[1].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, c2.ID, roots[0].Children[0].ID)
	assert.Empty(t, roots[0].Children[0].Children)

	// Author is the minimal projection only.
	assert.Equal(t, "bob", roots[0].Author.Username)
	assert.Equal(t, bob.ID, roots[0].Author.ID)
}

func TestBuildCommentTreeSiblingOrder(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	post := createPost(t, alice, "hello")

	base := time.Now().Add(-time.Hour)
	parent := createComment(t, post, alice, nil, "parent", base)
	// Insert replies out of id order relative to creation time by
	// backdating the second insert.
	late := createComment(t, post, alice, &parent.ID, "later", base.Add(10*time.Minute))
	early := createComment(t, post, alice, &parent.ID, "earlier", base.Add(time.Minute))

	roots, err := BuildCommentTree(post.ID)
	require.NoError(t, err)

	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, early.ID, roots[0].Children[0].ID)
	assert.Equal(t, late.ID, roots[0].Children[1].ID)
}

func TestBuildCommentTreeCrossPostParentDemotedToRoot(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	postA := createPost(t, alice, "post a")
	postB := createPost(t, alice, "post b")

	base := time.Now().Add(-time.Hour)
	foreign := createComment(t, postA, alice, nil, "on post a", base)
	stray := createComment(t, postB, alice, &foreign.ID, "parent lives on post a", base.Add(time.Minute))

	roots, err := BuildCommentTree(postB.ID)
	require.NoError(t, err)

	require.Len(t, roots, 1)
	assert.Equal(t, stray.ID, roots[0].ID)
	assert.Empty(t, roots[0].Children)

	// And post A's tree is unaffected.
	rootsA, err := BuildCommentTree(postA.ID)
	require.NoError(t, err)
	require.Len(t, rootsA, 1)
	assert.Equal(t, foreign.ID, rootsA[0].ID)
}

func TestBuildCommentTreeSelfParentDemotedToRoot(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	post := createPost(t, alice, "hello")

	base := time.Now().Add(-time.Hour)
	c := createComment(t, post, alice, nil, "self loop", base)
	require.NoError(t, db.DB.Model(&models.Comment{}).Where("id = ?", c.ID).Update("parent_id", c.ID).Error)

	roots, err := BuildCommentTree(post.ID)
	require.NoError(t, err)

	require.Len(t, roots, 1)
	assert.Equal(t, c.ID, roots[0].ID)
	assert.Empty(t, roots[0].Children)
}

func TestBuildCommentTreeLikeCounts(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	carol := createUser(t, "carol")
	post := createPost(t, alice, "hello")

	base := time.Now().Add(-time.Hour)
	liked := createComment(t, post, alice, nil, "popular", base)
	plain := createComment(t, post, alice, nil, "ignored", base.Add(time.Minute))

	for _, u := range []models.User{bob, carol} {
		require.NoError(t, db.DB.Create(&models.CommentLike{UserID: u.ID, CommentID: liked.ID}).Error)
	}

	roots, err := BuildCommentTree(post.ID)
	require.NoError(t, err)

	require.Len(t, roots, 2)
	assert.Equal(t, 2, roots[0].LikeCount)
	assert.Equal(t, plain.ID, roots[1].ID)
	assert.Equal(t, 0, roots[1].LikeCount)
}

func TestBuildCommentTreeNoDuplicateNodes(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	post := createPost(t, alice, "hello")

	base := time.Now().Add(-time.Hour)
	var parentID *uint
	for i := 0; i < 10; i++ {
		c := createComment(t, post, alice, parentID, fmt.Sprintf("depth %d", i), base.Add(time.Duration(i)*time.Minute))
		id := c.ID
		parentID = &id
	}

	roots, err := BuildCommentTree(post.ID)
	require.NoError(t, err)

	seen := map[uint]bool{}
	var walk func(nodes []*CommentNode) int
	walk = func(nodes []*CommentNode) int {
		total := 0
		for _, n := range nodes {
			require.False(t, seen[n.ID], "node %d appears twice", n.ID)
			seen[n.ID] = true
			total += 1 + walk(n.Children)
		}
		return total
	}
	assert.Equal(t, 10, walk(roots))
}
