package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skypoint/socialfeed/internal/feed"
	"github.com/skypoint/socialfeed/internal/models"
)

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// Get retrieves a post by ID
func (r *PostRepository) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetCandidate retrieves a post with its comment count
func (r *PostRepository) GetCandidate(ctx context.Context, id uuid.UUID) (*feed.Candidate, error) {
	var rows []candidateRow
	if err := r.candidateQuery(ctx).Where("posts.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	c := rows[0].candidate()
	return &c, nil
}

// rankTerms maps feed orderings onto the candidate query's columns
var rankTerms = map[feed.Order]string{
	feed.ScoreDesc:    "posts.score DESC",
	feed.CommentsDesc: "COUNT(comments.id) DESC",
	feed.NewestFirst:  "posts.created_at DESC",
	feed.IDAsc:        "posts.id ASC",
}

// rankOrder builds the ORDER BY for q. FollowedFirst is dropped when the viewer follows nobody.
func rankOrder(q feed.Query) clause.OrderBy {
	terms := make([]string, 0, len(rankTerms)+1)
	var vars []interface{}
	for _, o := range q.Variant.Ordering() {
		if o == feed.FollowedFirst {
			if len(q.Followed) == 0 {
				continue
			}
			terms = append(terms, "CASE WHEN posts.user_id IN ? THEN 0 ELSE 1 END")
			vars = append(vars, q.Followed)
			continue
		}
		terms = append(terms, rankTerms[o])
	}
	return clause.OrderBy{Expression: clause.Expr{SQL: strings.Join(terms, ", "), Vars: vars}}
}

func filterCandidates(tx *gorm.DB, q feed.Query) *gorm.DB {
	if q.Variant.OnlyFollowed() {
		return tx.Where("posts.user_id IN ?", q.Followed)
	}
	return tx
}

// CountCandidates counts the posts q.Variant ranks
func (r *PostRepository) CountCandidates(ctx context.Context, q feed.Query) (int, error) {
	var total int64
	if err := filterCandidates(r.db.WithContext(ctx).Model(&models.Post{}), q).Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// RankedCandidates returns one window of the ranked candidates with their comment counts
func (r *PostRepository) RankedCandidates(ctx context.Context, q feed.Query) ([]feed.Candidate, error) {
	var rows []candidateRow
	if err := filterCandidates(r.candidateQuery(ctx), q).
		Order(rankOrder(q)).
		Offset(q.Offset).
		Limit(q.Limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCandidates(rows), nil
}

// ListByUser returns one author's posts newest first, with the author's total
func (r *PostRepository) ListByUser(ctx context.Context, authorID uuid.UUID, offset, limit int) ([]feed.Candidate, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("user_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []feed.Candidate{}, total, nil
	}

	var rows []candidateRow
	if err := r.candidateQuery(ctx).
		Where("posts.user_id = ?", authorID).
		Order("posts.created_at DESC, posts.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toCandidates(rows), total, nil
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// UpdateContent writes the post's content and updated_at
func (r *PostRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", post.ID).
		UpdateColumns(map[string]interface{}{
			"content":    post.Content,
			"updated_at": post.UpdatedAt,
		}).Error
}

// Delete removes a post. Votes and comments are removed by foreign key cascade.
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{}).Error
}
