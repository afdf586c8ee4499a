package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/internal/models"
)

// Item is a post enriched for one viewer
type Item struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Content      string    `json:"content"`
	Score        int       `json:"score"`
	CommentCount int64     `json:"commentsCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	TimeAgo      string    `json:"timeAgo"`
	Author       *Author   `json:"user"`
	UserVote     *int      `json:"userVote"`
	IsFollowing  bool      `json:"isFollowing"`
}

// Author is the public view of a post's author with social counts
type Author struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	ProfilePictureURL string    `json:"profilePictureUrl"`
	FollowersCount    int64     `json:"followersCount"`
	FollowingCount    int64     `json:"followingCount"`
}

// FollowGraph is the part of the follow graph the feed reads
type FollowGraph interface {
	FollowingIDs(ctx context.Context, followerID uuid.UUID) (map[uuid.UUID]struct{}, error)
	Counts(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.FollowCounts, error)
}

// VoteReader reads a viewer's live votes
type VoteReader interface {
	CurrentVotes(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// UserLookup resolves users by id
type UserLookup interface {
	UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// Enricher turns candidates into viewer specific items
type Enricher struct {
	graph FollowGraph
	votes VoteReader
	users UserLookup
	clock clock.Clock
}

// NewEnricher creates a new enricher
func NewEnricher(graph FollowGraph, votes VoteReader, users UserLookup, clk clock.Clock) *Enricher {
	if clk == nil {
		clk = clock.System{}
	}
	return &Enricher{graph: graph, votes: votes, users: users, clock: clk}
}

// Enrich builds items in the order given. following reports the viewer's follow status per author.
func (e *Enricher) Enrich(ctx context.Context, viewerID uuid.UUID, cands []*Candidate, following func(authorID uuid.UUID) bool) ([]*Item, error) {
	items := make([]*Item, 0, len(cands))
	if len(cands) == 0 {
		return items, nil
	}

	postIDs := make([]uuid.UUID, 0, len(cands))
	authorIDs := make([]uuid.UUID, 0, len(cands))
	seen := make(map[uuid.UUID]struct{}, len(cands))
	for _, c := range cands {
		postIDs = append(postIDs, c.Post.ID)
		if _, ok := seen[c.Post.UserID]; !ok {
			seen[c.Post.UserID] = struct{}{}
			authorIDs = append(authorIDs, c.Post.UserID)
		}
	}

	users, err := e.users.UsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}
	counts, err := e.graph.Counts(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load author counts: %w", err)
	}
	votes, err := e.votes.CurrentVotes(ctx, viewerID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer votes: %w", err)
	}

	now := e.clock.Now()
	for _, c := range cands {
		p := c.Post
		author := &Author{ID: p.UserID}
		if u, ok := users[p.UserID]; ok {
			author.Username = u.Username
			author.FirstName = u.FirstName
			author.LastName = u.LastName
			author.ProfilePictureURL = u.ProfilePictureURL
		}
		n := counts[p.UserID]
		author.FollowersCount, author.FollowingCount = n.Followers, n.Following

		item := &Item{
			ID:           p.ID,
			UserID:       p.UserID,
			Content:      p.Content,
			Score:        p.Score,
			CommentCount: c.CommentCount,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
			TimeAgo:      clock.TimeAgo(now, p.CreatedAt),
			Author:       author,
			IsFollowing:  following(p.UserID),
		}
		if v, ok := votes[p.ID]; ok {
			item.UserVote = &v
		}
		items = append(items, item)
	}
	return items, nil
}
