package services

import (
	"fmt"
	"time"

	"pulselink/internal/db"
)

// Karma weights per qualifying like.
const (
	KarmaWeightPostLike    = 5
	KarmaWeightCommentLike = 1
)

// KarmaEntry is one leaderboard row.
type KarmaEntry struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Karma    int    `json:"karma"`
}

// TopKarma returns up to limit users ranked by weighted likes received
// since the window start: 5 per post like, 1 per comment like.
//
// Both event streams are unioned before grouping, so a user present in
// only one stream still surfaces and no like row is ever cross-multiplied
// against unrelated rows. Ties break on ascending user id. Users with no
// qualifying likes in the window are absent, not zero-scored.
func TopKarma(since time.Time, limit int) ([]KarmaEntry, error) {
	// Weights are inlined rather than bound: a bound parameter in the
	// SELECT list has no type the planner can feed into SUM.
	query := fmt.Sprintf(`
		SELECT u.id AS user_id, u.username, SUM(t.weight) AS karma
		FROM (
			SELECT p.user_id AS author_id, %d AS weight, pl.created_at AS created_at
			FROM post_likes pl
			JOIN posts p ON p.id = pl.post_id
			UNION ALL
			SELECT c.user_id AS author_id, %d AS weight, cl.created_at AS created_at
			FROM comment_likes cl
			JOIN comments c ON c.id = cl.comment_id
		) t
		JOIN users u ON u.id = t.author_id
		WHERE t.created_at >= ?
		GROUP BY u.id, u.username
		ORDER BY karma DESC, u.id ASC
		LIMIT ?`, KarmaWeightPostLike, KarmaWeightCommentLike)

	entries := make([]KarmaEntry, 0, limit)
	err := db.DB.Raw(query, since, limit).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
