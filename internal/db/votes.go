package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skypoint/socialfeed/internal/models"
	"github.com/skypoint/socialfeed/internal/votes"
)

// VoteRepository provides vote-related database operations
type VoteRepository struct {
	*Repository
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(repo *Repository) *VoteRepository {
	return &VoteRepository{Repository: repo}
}

// WithinPost runs fn in a transaction holding the post row lock.
// found is false, and fn is not called, when the post does not exist.
func (r *VoteRepository) WithinPost(ctx context.Context, postID uuid.UUID, fn func(tx votes.Tx) error) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := lockPost(tx, postID)
		if err != nil || !ok {
			return err
		}
		found = true
		return fn(&voteTx{db: tx})
	})
	return found, err
}

func lockPost(tx *gorm.DB, postID uuid.UUID) (bool, error) {
	var post models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", postID).
		Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetVote retrieves a user's live vote on a post
func (r *VoteRepository) GetVote(ctx context.Context, userID, postID uuid.UUID) (*models.Vote, error) {
	return getVote(r.db.WithContext(ctx), userID, postID)
}

func getVote(db *gorm.DB, userID, postID uuid.UUID) (*models.Vote, error) {
	var vote models.Vote
	if err := db.Where("user_id = ? AND post_id = ?", userID, postID).Take(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vote, nil
}

// VotesFor returns a user's vote values on the given posts
func (r *VoteRepository) VotesFor(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var rows []models.Vote
	if err := r.db.WithContext(ctx).
		Select("post_id", "value").
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, v := range rows {
		out[v.PostID] = v.Value
	}
	return out, nil
}

// Tally counts up and down votes on a post
func (r *VoteRepository) Tally(ctx context.Context, postID uuid.UUID) (int64, int64, error) {
	var row struct {
		Up   int64
		Down int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("COUNT(*) FILTER (WHERE value = 1) AS up, COUNT(*) FILTER (WHERE value = -1) AS down").
		Where("post_id = ?", postID).
		Scan(&row).Error
	return row.Up, row.Down, err
}

// Drifted lists posts whose score is not the sum of their votes
func (r *VoteRepository) Drifted(ctx context.Context) ([]votes.Drift, error) {
	var rows []struct {
		ID     uuid.UUID
		Score  int
		Actual int
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.id, posts.score, COALESCE(SUM(votes.value), 0) AS actual").
		Joins("LEFT JOIN votes ON votes.post_id = posts.id").
		Group("posts.id").
		Having("posts.score <> COALESCE(SUM(votes.value), 0)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]votes.Drift, len(rows))
	for i, row := range rows {
		out[i] = votes.Drift{PostID: row.ID, Stored: row.Score, Actual: row.Actual}
	}
	return out, nil
}

// RepairScore rewrites a post's score from its votes while holding the post lock
func (r *VoteRepository) RepairScore(ctx context.Context, postID uuid.UUID) (int, error) {
	var score int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if !ok {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&models.Vote{}).
			Select("COALESCE(SUM(value), 0)").
			Where("post_id = ?", postID).
			Scan(&score).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("score", score).Error
	})
	return score, err
}

// voteTx implements votes.Tx inside a locked transaction
type voteTx struct {
	db *gorm.DB
}

func (t *voteTx) GetVote(ctx context.Context, userID, postID uuid.UUID) (*models.Vote, error) {
	return getVote(t.db.WithContext(ctx), userID, postID)
}

func (t *voteTx) CreateVote(ctx context.Context, vote *models.Vote) error {
	return t.db.WithContext(ctx).Create(vote).Error
}

func (t *voteTx) SetVoteValue(ctx context.Context, voteID uuid.UUID, value int) error {
	return t.db.WithContext(ctx).Model(&models.Vote{}).Where("id = ?", voteID).Update("value", value).Error
}

func (t *voteTx) DeleteVote(ctx context.Context, voteID uuid.UUID) error {
	return t.db.WithContext(ctx).Where("id = ?", voteID).Delete(&models.Vote{}).Error
}

func (t *voteTx) AddScore(ctx context.Context, postID uuid.UUID, delta int, at time.Time) error {
	return t.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"score":      gorm.Expr("score + ?", delta),
			"updated_at": at,
		}).Error
}

func (t *voteTx) Score(ctx context.Context, postID uuid.UUID) (int, error) {
	var post models.Post
	if err := t.db.WithContext(ctx).Select("score").Where("id = ?", postID).Take(&post).Error; err != nil {
		return 0, err
	}
	return post.Score, nil
}
