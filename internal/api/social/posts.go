package social

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/feed"
)

// PostService manages posts
type PostService interface {
	Create(ctx context.Context, userID uuid.UUID, content string) (*feed.Item, error)
	Get(ctx context.Context, viewerID, postID uuid.UUID) (*feed.Item, error)
	Update(ctx context.Context, userID, postID uuid.UUID, content string) (*feed.Item, error)
	Delete(ctx context.Context, userID, postID uuid.UUID) error
	ListByUser(ctx context.Context, viewerID, authorID uuid.UUID, page, pageSize int) (*feed.Page, error)
}

// PostAPI provides posts.* methods
type PostAPI struct {
	posts PostService
}

// NewPostAPI creates a new post API
func NewPostAPI(posts PostService) *PostAPI {
	return &PostAPI{posts: posts}
}

type createPostParams struct {
	Content string `json:"content" binding:"required,max=2000"`
}

type updatePostParams struct {
	PostID  uuid.UUID `json:"postId" binding:"required"`
	Content string    `json:"content" binding:"required,max=2000"`
}

type listByUserParams struct {
	UserID   uuid.UUID `json:"userId" binding:"required"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// Create handles posts.create
func (a *PostAPI) Create(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p createPostParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	return a.posts.Create(c.Request.Context(), userID, p.Content)
}

// Get handles posts.get
func (a *PostAPI) Get(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	viewerID, err := viewer(c)
	if err != nil {
		return nil, err
	}
	return a.posts.Get(c.Request.Context(), viewerID, p.PostID)
}

// Update handles posts.update
func (a *PostAPI) Update(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p updatePostParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	return a.posts.Update(c.Request.Context(), userID, p.PostID, p.Content)
}

// Delete handles posts.delete
func (a *PostAPI) Delete(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	if err := a.posts.Delete(c.Request.Context(), userID, p.PostID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": true}, nil
}

// ListByUser handles posts.list_by_user
func (a *PostAPI) ListByUser(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p listByUserParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	viewerID, err := viewer(c)
	if err != nil {
		return nil, err
	}
	return a.posts.ListByUser(c.Request.Context(), viewerID, p.UserID, p.Page, p.PageSize)
}
