package social

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/models"
)

// FollowService maintains the follow graph
type FollowService interface {
	Follow(ctx context.Context, followerID, followingID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	Counts(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.FollowCounts, error)
}

// FollowAPI provides follow.* methods
type FollowAPI struct {
	follows FollowService
}

// NewFollowAPI creates a new follow API
func NewFollowAPI(follows FollowService) *FollowAPI {
	return &FollowAPI{follows: follows}
}

type userParams struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

// Follow handles follow.follow
func (f *FollowAPI) Follow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	followerID, err := actor(c)
	if err != nil {
		return nil, err
	}
	if err := f.follows.Follow(c.Request.Context(), followerID, p.UserID); err != nil {
		return nil, err
	}
	return gin.H{"userId": p.UserID, "isFollowing": true}, nil
}

// Unfollow handles follow.unfollow
func (f *FollowAPI) Unfollow(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	followerID, err := actor(c)
	if err != nil {
		return nil, err
	}
	if err := f.follows.Unfollow(c.Request.Context(), followerID, p.UserID); err != nil {
		return nil, err
	}
	return gin.H{"userId": p.UserID, "isFollowing": false}, nil
}

// IsFollowing handles follow.is_following
func (f *FollowAPI) IsFollowing(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	viewerID, err := viewer(c)
	if err != nil {
		return nil, err
	}
	ok, err := f.follows.IsFollowing(c.Request.Context(), viewerID, p.UserID)
	if err != nil {
		return nil, err
	}
	return gin.H{"userId": p.UserID, "isFollowing": ok}, nil
}

// GetCounts handles follow.get_counts
func (f *FollowAPI) GetCounts(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	counts, err := f.follows.Counts(c.Request.Context(), []uuid.UUID{p.UserID})
	if err != nil {
		return nil, err
	}
	return counts[p.UserID], nil
}
