package services

import (
	"errors"
	"time"

	"pulselink/internal/db"
	"pulselink/internal/models"
	"pulselink/internal/utils"

	"gorm.io/gorm"
)

var ErrPostNotFound = errors.New("post not found")

// CommentNode is one comment in the reconstructed thread tree.
type CommentNode struct {
	ID          uint           `json:"id"`
	Author      models.UserRef `json:"author"`
	Content     string         `json:"content"`
	ContentHTML string         `json:"content_html"`
	CreatedAt   string         `json:"created_at"`
	ParentID    *uint          `json:"parent_id"`
	LikeCount   int            `json:"like_count"`
	Children    []*CommentNode `json:"children"`
}

// BuildCommentTree loads every comment of a post in one bulk fetch and
// reconstructs the parent/child forest in memory: one scan to materialize
// nodes, one linking pass to attach children. O(N) for N comments instead
// of a recursive query per subtree.
//
// Returns ErrPostNotFound when the post does not exist.
func BuildCommentTree(postID uint) ([]*CommentNode, error) {
	var post models.Post
	if err := db.DB.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	// Single ordered bulk read, author joined. Children lists inherit this
	// creation-time order, so the linking pass never needs to sort.
	var comments []models.Comment
	if err := db.DB.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	likeCounts, err := fillCommentLikeCounts(comments)
	if err != nil {
		return nil, err
	}

	// Pass 1: arena of nodes keyed by id, plus the ordered slice.
	nodes := make(map[uint]*CommentNode, len(comments))
	ordered := make([]*CommentNode, 0, len(comments))
	for _, c := range comments {
		node := &CommentNode{
			ID:          c.ID,
			Author:      c.User.Ref(),
			Content:     c.Content,
			ContentHTML: utils.RenderMarkdown(c.Content),
			CreatedAt:   c.CreatedAt.Format(time.RFC3339),
			ParentID:    c.ParentID,
			LikeCount:   likeCounts[c.ID],
			Children:    []*CommentNode{},
		}
		nodes[c.ID] = node
		ordered = append(ordered, node)
	}

	// Pass 2: link children. Iterate the ordered slice, not the map, so
	// both roots and children keep ascending creation order. A parent id
	// that is missing from this post's set (deleted, or pointing into
	// another post) or that references the node itself demotes the
	// comment to a root rather than failing the read.
	roots := make([]*CommentNode, 0)
	for _, node := range ordered {
		if node.ParentID != nil && *node.ParentID != node.ID {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots, nil
}

// fillCommentLikeCounts batches like counts for all comments into a single
// grouped query, avoiding the per-comment COUNT fan-out.
func fillCommentLikeCounts(comments []models.Comment) (map[uint]int, error) {
	counts := make(map[uint]int, len(comments))
	if len(comments) == 0 {
		return counts, nil
	}

	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}

	type countRow struct {
		CommentID uint
		Count     int
	}
	var rows []countRow
	if err := db.DB.Model(&models.CommentLike{}).
		Select("comment_id, COUNT(*) as count").
		Where("comment_id IN ?", ids).
		Group("comment_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.CommentID] = r.Count
	}
	return counts, nil
}
