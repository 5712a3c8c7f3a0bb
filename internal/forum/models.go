package forum

import "time"

// Post is a forum post with its author, like state for the viewing user
// and embedded replies, matching what the forum page renders.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Likes     int64     `json:"likes"`
	Liked     bool      `json:"liked"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
}

// Reply is a single reply under a post
type Reply struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePostRequest is the request payload for a new post
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required,max=5000"`
}

// CreateReplyRequest is the request payload for a new reply
type CreateReplyRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

// LikeResult reports the outcome of a like toggle
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}
