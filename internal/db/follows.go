package db

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/skypoint/socialfeed/internal/models"
)

// FollowRepository provides follow-related database operations
type FollowRepository struct {
	*Repository
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(repo *Repository) *FollowRepository {
	return &FollowRepository{Repository: repo}
}

// AddFollow inserts a follow edge, ignoring an existing one
func (r *FollowRepository) AddFollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	follow := &models.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(follow).Error
}

// RemoveFollow deletes a follow edge
func (r *FollowRepository) RemoveFollow(ctx context.Context, followerID, followingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}

// IsFollowing reports whether a follow edge exists
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// FollowingIDs lists the users followerID follows
func (r *FollowRepository) FollowingIDs(ctx context.Context, followerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Pluck("following_id", &ids).Error
	return ids, err
}

type countRow struct {
	UserID uuid.UUID
	N      int64
}

// Counts returns follower and following totals for each user
func (r *FollowRepository) Counts(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]models.FollowCounts, error) {
	out := make(map[uuid.UUID]models.FollowCounts, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var followers, following []countRow
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Select("following_id AS user_id, COUNT(*) AS n").
		Where("following_id IN ?", userIDs).
		Group("following_id").
		Scan(&followers).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Select("follower_id AS user_id, COUNT(*) AS n").
		Where("follower_id IN ?", userIDs).
		Group("follower_id").
		Scan(&following).Error; err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		out[id] = models.FollowCounts{}
	}
	for _, row := range followers {
		c := out[row.UserID]
		c.Followers = row.N
		out[row.UserID] = c
	}
	for _, row := range following {
		c := out[row.UserID]
		c.Following = row.N
		out[row.UserID] = c
	}
	return out, nil
}
