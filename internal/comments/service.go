// Package comments serves threaded comments on posts.
package comments

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/apperr"
	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/internal/models"
	"github.com/skypoint/socialfeed/pkg/logging"
	"github.com/skypoint/socialfeed/pkg/telemetry"
)

// Service creates, edits, deletes and assembles comments
type Service struct {
	store  Store
	users  UserLookup
	clock  clock.Clock
	logger *zap.Logger
}

// NewService creates a new comment service
func NewService(store Store, users UserLookup, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		store:  store,
		users:  users,
		clock:  clk,
		logger: logging.WithComponent("comments"),
	}
}

// GetThread returns the reply forest of a post
func (s *Service) GetThread(ctx context.Context, postID uuid.UUID) ([]*Node, error) {
	ctx, span := telemetry.StartSpan(ctx, "comments.get_thread")
	defer span.End()

	exists, err := s.store.PostExists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("post %s not found", postID)
	}

	flat, err := s.store.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	forest := Assemble(flat)
	if err := s.decorate(ctx, forest); err != nil {
		return nil, err
	}
	return forest, nil
}

// Get returns one comment with its full reply subtree
func (s *Service) Get(ctx context.Context, commentID uuid.UUID) (*Node, error) {
	comment, err := s.store.Get(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, apperr.NotFound("comment %s not found", commentID)
	}

	flat, err := s.store.ListByPost(ctx, comment.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	var found *Node
	Walk(Assemble(flat), func(n *Node) {
		if n.ID == commentID {
			found = n
		}
	})
	if found == nil {
		// deleted between the two reads
		return nil, apperr.NotFound("comment %s not found", commentID)
	}

	if err := s.decorate(ctx, []*Node{found}); err != nil {
		return nil, err
	}
	return found, nil
}

// Create adds a comment to a post, as a reply when parentID is set.
// The returned node has no replies loaded.
func (s *Service) Create(ctx context.Context, userID, postID uuid.UUID, content string, parentID *uuid.UUID) (*Node, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	exists, err := s.store.PostExists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("post %s not found", postID)
	}

	if parentID != nil {
		parent, err := s.store.GetInPost(ctx, *parentID, postID)
		if err != nil {
			return nil, fmt.Errorf("failed to check parent comment: %w", err)
		}
		if parent == nil {
			return nil, apperr.NotFound("parent comment %s not found on post %s", *parentID, postID)
		}
	}

	comment := &models.Comment{
		ID:              uuid.New(),
		PostID:          postID,
		UserID:          userID,
		ParentCommentID: parentID,
		Content:         content,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.store.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Debug("Created comment",
		zap.Stringer("comment_id", comment.ID),
		zap.Stringer("post_id", postID),
		zap.Bool("reply", parentID != nil))

	node := newNode(comment)
	if err := s.decorate(ctx, []*Node{node}); err != nil {
		return nil, err
	}
	return node, nil
}

// Update replaces the text of the caller's own comment
func (s *Service) Update(ctx context.Context, userID, commentID uuid.UUID, content string) (*Node, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	comment, err := s.ownComment(ctx, userID, commentID, "update")
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateContent(ctx, commentID, content); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	comment.Content = content

	node := newNode(comment)
	if err := s.decorate(ctx, []*Node{node}); err != nil {
		return nil, err
	}
	return node, nil
}

// Delete removes the caller's own comment. Comments with replies are kept.
func (s *Service) Delete(ctx context.Context, userID, commentID uuid.UUID) error {
	if _, err := s.ownComment(ctx, userID, commentID, "delete"); err != nil {
		return err
	}

	deleted, err := s.store.DeleteLeaf(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if !deleted {
		return apperr.Conflict("cannot delete comment with replies")
	}

	s.logger.Debug("Deleted comment", zap.Stringer("comment_id", commentID))
	return nil
}

// Count returns the number of comments on a post
func (s *Service) Count(ctx context.Context, postID uuid.UUID) (int64, error) {
	exists, err := s.store.PostExists(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return 0, apperr.NotFound("post %s not found", postID)
	}

	n, err := s.store.CountByPost(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

func (s *Service) ownComment(ctx context.Context, userID, commentID uuid.UUID, verb string) (*models.Comment, error) {
	comment, err := s.store.Get(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if comment == nil {
		return nil, apperr.NotFound("comment %s not found", commentID)
	}
	if comment.UserID != userID {
		return nil, apperr.Forbidden("you can only %s your own comments", verb)
	}
	return comment, nil
}

// decorate fills authors and relative times across the forest
func (s *Service) decorate(ctx context.Context, forest []*Node) error {
	authorIDs := make(map[uuid.UUID]struct{})
	Walk(forest, func(n *Node) {
		authorIDs[n.authorID()] = struct{}{}
	})
	if len(authorIDs) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(authorIDs))
	for id := range authorIDs {
		ids = append(ids, id)
	}
	users, err := s.users.UsersByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load comment authors: %w", err)
	}

	now := s.clock.Now()
	Walk(forest, func(n *Node) {
		n.TimeAgo = clock.TimeAgo(now, n.CreatedAt)
		if u, ok := users[n.authorID()]; ok {
			n.Author = &Author{
				ID:                u.ID,
				Username:          u.Username,
				FirstName:         u.FirstName,
				LastName:          u.LastName,
				ProfilePictureURL: u.ProfilePictureURL,
			}
		} else {
			n.Author = &Author{ID: n.authorID()}
		}
	})
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperr.InvalidArgument("comment content cannot be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return apperr.InvalidArgument("comment content exceeds %d characters", models.MaxContentLength)
	}
	return nil
}
