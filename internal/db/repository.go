package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skypoint/socialfeed/internal/feed"
	"github.com/skypoint/socialfeed/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserExists reports whether a user row exists
func (r *Repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.User{}, userID)
}

// PostExists reports whether a post row exists
func (r *Repository) PostExists(ctx context.Context, postID uuid.UUID) (bool, error) {
	return r.exists(ctx, &models.Post{}, postID)
}

func (r *Repository) exists(ctx context.Context, model interface{}, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// UsersByIDs retrieves multiple users keyed by id
func (r *UserRepository) UsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// candidateRow is a post with its comment count
type candidateRow struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Content      string
	Score        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CommentCount int64
}

func (c candidateRow) candidate() feed.Candidate {
	return feed.Candidate{
		Post: models.Post{
			ID:        c.ID,
			UserID:    c.UserID,
			Content:   c.Content,
			Score:     c.Score,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		},
		CommentCount: c.CommentCount,
	}
}

func (r *Repository) candidateQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.id, posts.user_id, posts.content, posts.score, posts.created_at, posts.updated_at, " +
			"COUNT(comments.id) AS comment_count").
		Joins("LEFT JOIN comments ON comments.post_id = posts.id").
		Group("posts.id")
}

func toCandidates(rows []candidateRow) []feed.Candidate {
	out := make([]feed.Candidate, len(rows))
	for i, row := range rows {
		out[i] = row.candidate()
	}
	return out
}
