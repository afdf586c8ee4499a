package votes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/models"
)

// Store is the persistence the ledger reads and mutates
type Store interface {
	// WithinPost runs fn in one transaction that holds the post's row lock,
	// serializing it against every other WithinPost on the same post.
	// found is false, and fn is not called, when the post does not exist.
	WithinPost(ctx context.Context, postID uuid.UUID, fn func(tx Tx) error) (found bool, err error)

	PostExists(ctx context.Context, postID uuid.UUID) (bool, error)
	GetVote(ctx context.Context, userID, postID uuid.UUID) (*models.Vote, error)
	// VotesFor returns userID's live vote values keyed by post, omitting posts without a vote
	VotesFor(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]int, error)
	// Tally counts live up and down votes of a post
	Tally(ctx context.Context, postID uuid.UUID) (up, down int64, err error)
}

// Tx is the transactional view handed to WithinPost callbacks
type Tx interface {
	GetVote(ctx context.Context, userID, postID uuid.UUID) (*models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	SetVoteValue(ctx context.Context, voteID uuid.UUID, value int) error
	DeleteVote(ctx context.Context, voteID uuid.UUID) error
	// AddScore applies score = score + delta and sets updated_at to at
	AddScore(ctx context.Context, postID uuid.UUID, delta int, at time.Time) error
	Score(ctx context.Context, postID uuid.UUID) (int, error)
}
