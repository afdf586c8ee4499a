package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skypoint/socialfeed/internal/models"
)

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// ListByPost retrieves all comments of a post, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Get retrieves a comment by ID
func (r *CommentRepository) Get(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetInPost retrieves a comment only if it belongs to postID
func (r *CommentRepository) GetInPost(ctx context.Context, id, postID uuid.UUID) (*models.Comment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ? AND post_id = ?", id, postID))
}

func (r *CommentRepository) first(q *gorm.DB) (*models.Comment, error) {
	var comment models.Comment
	if err := q.First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// UpdateContent replaces a comment's text
func (r *CommentRepository) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content).Error
}

// DeleteLeaf deletes a comment that has no replies. The reply check and the delete are
// one statement; a reply committed concurrently trips the parent foreign key instead.
func (r *CommentRepository) DeleteLeaf(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"DELETE FROM comments WHERE id = ? AND NOT EXISTS "+
			"(SELECT 1 FROM comments AS replies WHERE replies.parent_comment_id = ?)",
		id, id)
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		return false, nil
	}
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountByPost counts the comments of a post
func (r *CommentRepository) CountByPost(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
