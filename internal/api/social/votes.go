package social

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/votes"
)

// VoteService records votes and reports vote state
type VoteService interface {
	Cast(ctx context.Context, userID, postID uuid.UUID, value int) (*votes.Outcome, error)
	Retract(ctx context.Context, userID, postID uuid.UUID) (*votes.Outcome, error)
	CurrentVote(ctx context.Context, userID, postID uuid.UUID) (int, bool, error)
	HasVoted(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Stats(ctx context.Context, postID uuid.UUID) (*votes.Stats, error)
}

// VoteAPI provides votes.* methods
type VoteAPI struct {
	votes VoteService
}

// NewVoteAPI creates a new vote API
func NewVoteAPI(votes VoteService) *VoteAPI {
	return &VoteAPI{votes: votes}
}

type postParams struct {
	PostID uuid.UUID `json:"postId" binding:"required"`
}

type castParams struct {
	PostID uuid.UUID `json:"postId" binding:"required"`
	Value  int       `json:"value" binding:"required,oneof=-1 1"`
}

// Cast handles votes.cast
func (v *VoteAPI) Cast(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p castParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	return v.votes.Cast(c.Request.Context(), userID, p.PostID, p.Value)
}

// Retract handles votes.retract
func (v *VoteAPI) Retract(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	userID, err := actor(c)
	if err != nil {
		return nil, err
	}
	return v.votes.Retract(c.Request.Context(), userID, p.PostID)
}

// GetVote handles votes.get_vote
func (v *VoteAPI) GetVote(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	viewerID, err := viewer(c)
	if err != nil {
		return nil, err
	}

	value, ok, err := v.votes.CurrentVote(c.Request.Context(), viewerID, p.PostID)
	if err != nil {
		return nil, err
	}
	result := gin.H{"postId": p.PostID, "userVote": nil, "hasVoted": ok}
	if ok {
		result["userVote"] = value
	}
	return result, nil
}

// HasVoted handles votes.has_voted
func (v *VoteAPI) HasVoted(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	viewerID, err := viewer(c)
	if err != nil {
		return nil, err
	}

	voted, err := v.votes.HasVoted(c.Request.Context(), viewerID, p.PostID)
	if err != nil {
		return nil, err
	}
	return gin.H{"postId": p.PostID, "hasVoted": voted}, nil
}

// GetStats handles votes.get_stats
func (v *VoteAPI) GetStats(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p postParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	return v.votes.Stats(c.Request.Context(), p.PostID)
}
