package social

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/feed"
)

// FeedService produces ranked feeds
type FeedService interface {
	GetFeed(ctx context.Context, viewerID uuid.UUID, variant feed.Variant, page, pageSize int) (*feed.Page, error)
}

// FeedAPI provides feed.* methods
type FeedAPI struct {
	feeds FeedService
}

// NewFeedAPI creates a new feed API
func NewFeedAPI(feeds FeedService) *FeedAPI {
	return &FeedAPI{feeds: feeds}
}

type getFeedParams struct {
	FeedType string `json:"feedType" binding:"omitempty,oneof=personalized public following"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// GetFeed handles feed.get_feed
func (f *FeedAPI) GetFeed(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p getFeedParams
	if err := bind(params, &p); err != nil {
		return nil, err
	}
	variant, err := feed.ParseVariant(p.FeedType)
	if err != nil {
		return nil, err
	}
	viewerID, err := viewer(c)
	if err != nil {
		return nil, err
	}
	return f.feeds.GetFeed(c.Request.Context(), viewerID, variant, p.Page, p.PageSize)
}
