package comments

import (
	"context"

	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/models"
)

// Store is the comment persistence the service needs. Getters return nil, nil when nothing matches.
type Store interface {
	PostExists(ctx context.Context, postID uuid.UUID) (bool, error)
	// ListByPost returns every comment of a post ordered by creation time
	ListByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	Get(ctx context.Context, commentID uuid.UUID) (*models.Comment, error)
	// GetInPost matches only when the comment belongs to postID
	GetInPost(ctx context.Context, commentID, postID uuid.UUID) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, commentID uuid.UUID, content string) error
	// DeleteLeaf deletes the comment only if nothing replies to it, in one statement.
	// deleted is false when a reply exists.
	DeleteLeaf(ctx context.Context, commentID uuid.UUID) (deleted bool, err error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int64, error)
}

// UserLookup resolves authors for display
type UserLookup interface {
	UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}
