package dashboard

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyComment rejects comment content that trims to nothing.
var ErrEmptyComment = errors.New("comment content is empty")

// Formatting carries the display options captured with a comment.
type Formatting struct {
	Bold      bool   `json:"bold"`
	Italic    bool   `json:"italic"`
	SizeClass string `json:"sizeClass"`
}

// Comment is one free-form annotation attached to the session. Comments live
// only in controller state: they are not part of the persisted snapshot and
// are dropped on reset.
type Comment struct {
	ID         string     `json:"id"`
	Title      string     `json:"title,omitempty"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"createdAt"`
	Formatting Formatting `json:"formatting"`
}

// AddComment appends a comment. The title is optional; content is required.
func (c *Controller) AddComment(title, content string, f Formatting) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyComment
	}
	cm := Comment{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(title),
		Content:    content,
		CreatedAt:  time.Now(),
		Formatting: f,
	}
	c.comments = append(c.comments, cm)
	return cm, nil
}

// UpdateComment rewrites a comment's title and content by id. A no-op when
// either resolves empty after trimming, or when the id is unknown.
func (c *Controller) UpdateComment(id, title, content string) bool {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return false
	}
	for i := range c.comments {
		if c.comments[i].ID == id {
			c.comments[i].Title = title
			c.comments[i].Content = content
			return true
		}
	}
	return false
}

// DeleteComment removes a comment by id.
func (c *Controller) DeleteComment(id string) bool {
	for i := range c.comments {
		if c.comments[i].ID == id {
			c.comments = append(c.comments[:i], c.comments[i+1:]...)
			return true
		}
	}
	return false
}

// Comments returns the append-ordered comment list.
func (c *Controller) Comments() []Comment {
	return append([]Comment(nil), c.comments...)
}
