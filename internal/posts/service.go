// Package posts creates, edits and lists posts.
package posts

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/apperr"
	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/internal/feed"
	"github.com/skypoint/socialfeed/internal/models"
	"github.com/skypoint/socialfeed/pkg/logging"
)

// Store is the post persistence the service needs. Getters return nil, nil when nothing matches.
type Store interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	Create(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, postID uuid.UUID) (*models.Post, error)
	// GetCandidate returns the post with its comment count
	GetCandidate(ctx context.Context, postID uuid.UUID) (*feed.Candidate, error)
	UpdateContent(ctx context.Context, post *models.Post) error
	// Delete removes the post; votes and comments go with it
	Delete(ctx context.Context, postID uuid.UUID) error
	// ListByUser returns the author's posts newest first, and their total
	ListByUser(ctx context.Context, authorID uuid.UUID, offset, limit int) ([]feed.Candidate, int64, error)
}

// FollowChecker reports a single follow edge
type FollowChecker interface {
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
}

// Service manages posts
type Service struct {
	store    Store
	follows  FollowChecker
	enricher *feed.Enricher
	clock    clock.Clock
	paging   feed.Paging
	logger   *zap.Logger
}

// NewService creates a new post service
func NewService(store Store, follows FollowChecker, enricher *feed.Enricher, clk clock.Clock, paging feed.Paging) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		store:    store,
		follows:  follows,
		enricher: enricher,
		clock:    clk,
		paging:   paging,
		logger:   logging.WithComponent("posts"),
	}
}

// Create publishes a new post for userID
func (s *Service) Create(ctx context.Context, userID uuid.UUID, content string) (*feed.Item, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	ok, err := s.store.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("user %s not found", userID)
	}

	now := s.clock.Now()
	post := &models.Post{
		ID:        uuid.New(),
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Debug("Created post", zap.Stringer("post_id", post.ID), zap.Stringer("user_id", userID))

	return s.one(ctx, userID, &feed.Candidate{Post: *post})
}

// Get returns a post enriched for viewerID
func (s *Service) Get(ctx context.Context, viewerID, postID uuid.UUID) (*feed.Item, error) {
	cand, err := s.store.GetCandidate(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if cand == nil {
		return nil, apperr.NotFound("post %s not found", postID)
	}
	return s.one(ctx, viewerID, cand)
}

// Update replaces the text of the caller's own post
func (s *Service) Update(ctx context.Context, userID, postID uuid.UUID, content string) (*feed.Item, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	post, err := s.ownPost(ctx, userID, postID, "update")
	if err != nil {
		return nil, err
	}

	post.Content = content
	post.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateContent(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return s.Get(ctx, userID, postID)
}

// Delete removes the caller's own post with its votes and comments
func (s *Service) Delete(ctx context.Context, userID, postID uuid.UUID) error {
	if _, err := s.ownPost(ctx, userID, postID, "delete"); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.logger.Debug("Deleted post", zap.Stringer("post_id", postID))
	return nil
}

// ListByUser pages through authorID's posts, newest first
func (s *Service) ListByUser(ctx context.Context, viewerID, authorID uuid.UUID, page, pageSize int) (*feed.Page, error) {
	page, pageSize = s.paging.Clamp(page, pageSize)
	out := &feed.Page{Items: []*feed.Item{}, Page: page, PageSize: pageSize}

	// pages beyond the int range of offsets are empty
	if page-1 > (1<<31)/pageSize {
		return out, nil
	}

	cands, total, err := s.store.ListByUser(ctx, authorID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	out.TotalCount = int(total)
	out.HasMore = int64(page)*int64(pageSize) < total

	following, err := s.isFollowing(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*feed.Candidate, len(cands))
	for i := range cands {
		ptrs[i] = &cands[i]
	}
	items, err := s.enricher.Enrich(ctx, viewerID, ptrs, func(uuid.UUID) bool { return following })
	if err != nil {
		return nil, err
	}
	out.Items = items
	return out, nil
}

func (s *Service) one(ctx context.Context, viewerID uuid.UUID, cand *feed.Candidate) (*feed.Item, error) {
	following, err := s.isFollowing(ctx, viewerID, cand.Post.UserID)
	if err != nil {
		return nil, err
	}
	items, err := s.enricher.Enrich(ctx, viewerID, []*feed.Candidate{cand}, func(uuid.UUID) bool { return following })
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// isFollowing is false for anonymous viewers and for the author's own posts
func (s *Service) isFollowing(ctx context.Context, viewerID, authorID uuid.UUID) (bool, error) {
	if viewerID == uuid.Nil || viewerID == authorID {
		return false, nil
	}
	ok, err := s.follows.IsFollowing(ctx, viewerID, authorID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return ok, nil
}

func (s *Service) ownPost(ctx context.Context, userID, postID uuid.UUID, verb string) (*models.Post, error) {
	post, err := s.store.Get(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post %s not found", postID)
	}
	if post.UserID != userID {
		return nil, apperr.Forbidden("you can only %s your own posts", verb)
	}
	return post, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.InvalidArgument("post content cannot be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return apperr.InvalidArgument("post content exceeds %d characters", models.MaxContentLength)
	}
	return nil
}
