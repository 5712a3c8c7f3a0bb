// Package forum implements the community forum: posts, replies and a
// per-user like toggle. Clients refresh the post list by polling; the
// list therefore embeds everything the page needs in one response.
package forum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"mkulima/internal/database"
)

// ErrPostNotFound is returned when the referenced post does not exist
var ErrPostNotFound = errors.New("post not found")

// Service defines forum operations. The viewer id shapes the response
// (the liked flag) but never restricts visibility.
type Service interface {
	ListPosts(ctx context.Context, viewerID int64) ([]Post, error)
	CreatePost(ctx context.Context, userID int64, req CreatePostRequest) (*Post, error)
	AddReply(ctx context.Context, userID, postID int64, req CreateReplyRequest) (*Reply, error)
	ToggleLike(ctx context.Context, userID, postID int64) (*LikeResult, error)
}

type service struct {
	db database.Service
}

// NewService creates a new forum service
func NewService(db database.Service) Service {
	return &service{db: db}
}

// ListPosts returns every post newest-first with author names, like
// counts, the viewer's liked flag and replies oldest-first.
func (s *service) ListPosts(ctx context.Context, viewerID int64) ([]Post, error) {
	const q = `
		SELECT p.id, p.user_id, u.name, p.title, p.content, p.created_at,
		       (SELECT COUNT(*) FROM forum_likes l WHERE l.post_id = p.id) AS likes,
		       EXISTS (
		           SELECT 1 FROM forum_likes l
		           WHERE l.post_id = p.id AND l.user_id = $1
		       ) AS liked
		FROM forum_posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC
	`

	rows, err := s.db.Query(ctx, q, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	index := map[int64]int{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &p.Title, &p.Content,
			&p.CreatedAt, &p.Likes, &p.Liked); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Replies = []Reply{}
		index[p.ID] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachReplies(ctx, posts, index); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *service) attachReplies(ctx context.Context, posts []Post, index map[int64]int) error {
	if len(posts) == 0 {
		return nil
	}

	const q = `
		SELECT r.id, r.post_id, r.user_id, u.name, r.content, r.created_at
		FROM forum_replies r
		JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at ASC
	`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Reply
		if err := rows.Scan(&r.ID, &r.PostID, &r.UserID, &r.UserName, &r.Content, &r.CreatedAt); err != nil {
			return fmt.Errorf("scan reply: %w", err)
		}
		if i, ok := index[r.PostID]; ok {
			posts[i].Replies = append(posts[i].Replies, r)
		}
	}
	return rows.Err()
}

func (s *service) CreatePost(ctx context.Context, userID int64, req CreatePostRequest) (*Post, error) {
	const q = `
		INSERT INTO forum_posts (user_id, title, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	p := &Post{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Replies: []Reply{},
	}
	err := s.db.QueryRow(ctx, q, userID, req.Title, req.Content, time.Now()).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	if err := s.authorName(ctx, userID, &p.UserName); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) AddReply(ctx context.Context, userID, postID int64, req CreateReplyRequest) (*Reply, error) {
	const q = `
		INSERT INTO forum_replies (post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	r := &Reply{
		PostID:  postID,
		UserID:  userID,
		Content: req.Content,
	}
	err := s.db.QueryRow(ctx, q, postID, userID, req.Content, time.Now()).
		Scan(&r.ID, &r.CreatedAt)
	if isForeignKeyViolation(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert reply: %w", err)
	}

	if err := s.authorName(ctx, userID, &r.UserName); err != nil {
		return nil, err
	}
	return r, nil
}

// ToggleLike likes the post when the user has not liked it yet and
// removes the like otherwise. The unique (post_id, user_id) constraint
// makes concurrent toggles settle on one of the two states.
func (s *service) ToggleLike(ctx context.Context, userID, postID int64) (*LikeResult, error) {
	const insert = `
		INSERT INTO forum_likes (post_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id, user_id) DO NOTHING
	`

	res, err := s.db.Exec(ctx, insert, postID, userID, time.Now())
	if isForeignKeyViolation(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("insert like: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	liked := inserted > 0
	if !liked {
		const del = `DELETE FROM forum_likes WHERE post_id = $1 AND user_id = $2`
		if _, err := s.db.Exec(ctx, del, postID, userID); err != nil {
			return nil, fmt.Errorf("delete like: %w", err)
		}
	}

	const count = `SELECT COUNT(*) FROM forum_likes WHERE post_id = $1`
	var likes int64
	if err := s.db.QueryRow(ctx, count, postID).Scan(&likes); err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	return &LikeResult{Liked: liked, Likes: likes}, nil
}

func (s *service) authorName(ctx context.Context, userID int64, dst *string) error {
	const q = `SELECT name FROM users WHERE id = $1`
	if err := s.db.QueryRow(ctx, q, userID).Scan(dst); err != nil {
		return fmt.Errorf("author name: %w", err)
	}
	return nil
}

// isForeignKeyViolation checks for a postgres foreign key error, which
// here means the target post is gone.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
