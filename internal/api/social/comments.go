package social

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/comments"
)

// CommentService reads and writes threaded comments
type CommentService interface {
	GetThread(ctx context.Context, postID uuid.UUID) ([]*comments.Node, error)
	Get(ctx context.Context, commentID uuid.UUID) (*comments.Node, error)
	Create(ctx context.Context, userID, postID uuid.UUID, content string, parentID *uuid.UUID) (*comments.Node, error)
	Update(ctx context.Context, userID, commentID uuid.UUID, content string) (*comments.Node, error)
	Delete(ctx context.Context, userID, commentID uuid.UUID) error
	Count(ctx context.Context, postID uuid.UUID) (int64, error)
}

// CommentAPI provides comments.* methods
type CommentAPI struct {
	comments CommentService
}

// NewCommentAPI creates a new comment API
func NewCommentAPI(comments CommentService) *CommentAPI {
	return &CommentAPI{comments: comments}
}

type commentParams struct {
	CommentID uuid.UUID `json:"commentId" binding:"required"`
}

type createCommentParams struct {
	PostID          uuid.UUID  `json:"postId" binding:"required"`
	Content         string     `json:"content" binding:"required,max=2000"`
	ParentCommentID *uuid.UUID `json:"parentCommentId"`
}

type updateCommentParams struct {
	CommentID uuid.UUID `json:"commentId" binding:"required"`
	Content   string    `json:"content" binding:"required,max=2000"`
}

// GetThread handles comments.get_thread
func (a *CommentAPI) GetThread(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	return a.comments.GetThread(c.Request.Context(), p.PostID)
}

// GetComment handles comments.get_comment
func (a *CommentAPI) GetComment(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p commentParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	return a.comments.Get(c.Request.Context(), p.CommentID)
}

// Create handles comments.create
func (a *CommentAPI) Create(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p createCommentParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	return a.comments.Create(c.Request.Context(), userID, p.PostID, p.Content, p.ParentCommentID)
}

// Update handles comments.update
func (a *CommentAPI) Update(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p updateCommentParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	return a.comments.Update(c.Request.Context(), userID, p.CommentID, p.Content)
}

// Delete handles comments.delete
func (a *CommentAPI) Delete(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p commentParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	if err := a.comments.Delete(c.Request.Context(), userID, p.CommentID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}

// Count handles comments.count
func (a *CommentAPI) Count(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	n, err := a.comments.Count(c.Request.Context(), p.PostID)
	if err != nil {
		return nil, err
	}
	return gin.H{"postId": p.PostID, "count": n}, nil
}
