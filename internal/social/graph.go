// Package social maintains the follow graph between users.
package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/apperr"
	"github.com/skypoint/socialfeed/internal/cache"
	"github.com/skypoint/socialfeed/internal/models"
	"github.com/skypoint/socialfeed/pkg/logging"
)

// Store is the follow persistence the graph needs
type Store interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	// AddFollow inserts the edge, ignoring an existing one
	AddFollow(ctx context.Context, followerID, followingID uuid.UUID) error
	RemoveFollow(ctx context.Context, followerID, followingID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	FollowingIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error)
	Counts(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.FollowCounts, error)
}

// Graph answers follow queries, caching each user's following set
type Graph struct {
	store  Store
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewGraph creates a new follow graph. A nil cache disables caching.
func NewGraph(store Store, c *cache.Cache, ttl time.Duration) *Graph {
	return &Graph{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logging.WithComponent("follow-graph"),
	}
}

// The cached set lives under a generation number that every follow change bumps.
// A set loaded before a change is written under the old generation and never read again.
func generationKey(userID uuid.UUID) string {
	return "following:" + userID.String() + ":gen"
}

func followingKey(userID uuid.UUID, gen int64) string {
	return fmt.Sprintf("following:%s:%d", userID, gen)
}

// Follow makes followerID follow followingID. Following twice is a no-op.
func (g *Graph) Follow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return apperr.InvalidArgument("cannot follow yourself")
	}

	for _, id := range []uuid.UUID{followerID, followingID} {
		ok, err := g.store.UserExists(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !ok {
			return apperr.NotFound("user %s not found", id)
		}
	}

	if err := g.store.AddFollow(ctx, followerID, followingID); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	g.invalidate(ctx, followerID)
	return nil
}

// Unfollow removes the edge if present
func (g *Graph) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	if err := g.store.RemoveFollow(ctx, followerID, followingID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	g.invalidate(ctx, followerID)
	return nil
}

// IsFollowing reports whether followerID follows followingID. Anonymous viewers follow nobody.
func (g *Graph) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	if followerID == uuid.Nil {
		return false, nil
	}
	ok, err := g.store.IsFollowing(ctx, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return ok, nil
}

// FollowingIDs returns the set of users followerID follows
func (g *Graph) FollowingIDs(ctx context.Context, followerID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if followerID == uuid.Nil {
		return map[uuid.UUID]struct{}{}, nil
	}

	gen, err := g.cache.Counter(ctx, generationKey(followerID))
	cached := err == nil
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		g.logger.Warn("Failed to read following cache generation", zap.Stringer("user_id", followerID), zap.Error(err))
	}

	if cached {
		var ids []uuid.UUID
		err := g.cache.GetJSON(ctx, followingKey(followerID, gen), &ids)
		if err == nil {
			return toSet(ids), nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			g.logger.Warn("Failed to read following cache", zap.Stringer("user_id", followerID), zap.Error(err))
		}
	}

	ids, err := g.store.FollowingIDs(ctx, followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load following: %w", err)
	}
	if cached {
		if err := g.cache.SetJSON(ctx, followingKey(followerID, gen), ids, g.ttl); err != nil {
			g.logger.Warn("Failed to write following cache", zap.Stringer("user_id", followerID), zap.Error(err))
		}
	}
	return toSet(ids), nil
}

func toSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Counts returns follower and following totals per user
func (g *Graph) Counts(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.FollowCounts, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID]models.FollowCounts{}, nil
	}
	counts, err := g.store.Counts(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count follows: %w", err)
	}
	return counts, nil
}

func (g *Graph) invalidate(ctx context.Context, followerID uuid.UUID) {
	if g.cache == nil {
		return
	}
	gen, err := g.cache.Incr(ctx, generationKey(followerID))
	if err != nil {
		g.logger.Warn("Failed to invalidate following cache", zap.Stringer("user_id", followerID), zap.Error(err))
		return
	}
	if err := g.cache.Delete(ctx, followingKey(followerID, gen-1)); err != nil {
		g.logger.Debug("Failed to drop previous following set", zap.Stringer("user_id", followerID), zap.Error(err))
	}
}
