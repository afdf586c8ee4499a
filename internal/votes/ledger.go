// Package votes keeps one live vote per (user, post) and the post score
// consistent with the sum of those votes.
package votes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/apperr"
	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/internal/models"
	"github.com/skypoint/socialfeed/pkg/logging"
	"github.com/skypoint/socialfeed/pkg/telemetry"
)

// Action describes what a ledger mutation did to the caller's vote
type Action string

const (
	ActionCreated   Action = "created"
	ActionRetracted Action = "retracted"
	ActionSwitched  Action = "switched"
	ActionNone      Action = "none"
)

// Outcome is the result of Cast or Retract
type Outcome struct {
	PostID   uuid.UUID `json:"postId"`
	Action   Action    `json:"action"`
	Delta    int       `json:"delta"`
	Score    int       `json:"score"`
	UserVote *int      `json:"userVote"`
}

// Stats is the aggregate of live votes on a post
type Stats struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	Score     int64 `json:"score"`
}

// Ledger records votes and maintains post scores
type Ledger struct {
	store  Store
	clock  clock.Clock
	logger *zap.Logger
	casts  metric.Int64Counter
}

// NewLedger creates a new vote ledger
func NewLedger(store Store, clk clock.Clock) *Ledger {
	if clk == nil {
		clk = clock.System{}
	}

	logger := logging.WithComponent("vote-ledger")

	casts, err := telemetry.Meter().Int64Counter("socialfeed.votes.cast",
		metric.WithDescription("Vote ledger mutations by action"))
	if err != nil {
		logger.Warn("Failed to create vote counter", zap.Error(err))
		casts = noop.Int64Counter{}
	}

	return &Ledger{
		store:  store,
		clock:  clk,
		logger: logger,
		casts:  casts,
	}
}

// Cast records value (+1 or -1) for userID on postID.
// Casting the value the user already holds retracts it; casting the
// opposite value swings the score by two.
func (l *Ledger) Cast(ctx context.Context, userID, postID uuid.UUID, value int) (*Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "votes.cast")
	defer span.End()

	if value != models.Upvote && value != models.Downvote {
		return nil, apperr.InvalidArgument("vote value must be 1 (upvote) or -1 (downvote), got %d", value)
	}

	var out *Outcome
	found, err := l.store.WithinPost(ctx, postID, func(tx Tx) error {
		existing, err := tx.GetVote(ctx, userID, postID)
		if err != nil {
			return fmt.Errorf("failed to read vote: %w", err)
		}

		var (
			action Action
			delta  int
			result *int
		)
		switch {
		case existing == nil:
			vote := &models.Vote{
				ID:        uuid.New(),
				UserID:    userID,
				PostID:    postID,
				Value:     value,
				CreatedAt: l.clock.Now(),
			}
			if err := tx.CreateVote(ctx, vote); err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			action, delta, result = ActionCreated, value, intPtr(value)
		case existing.Value == value:
			if err := tx.DeleteVote(ctx, existing.ID); err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
			action, delta = ActionRetracted, -value
		default:
			if err := tx.SetVoteValue(ctx, existing.ID, value); err != nil {
				return fmt.Errorf("failed to update vote: %w", err)
			}
			action, delta, result = ActionSwitched, value-existing.Value, intPtr(value)
		}

		score, err := l.applyDelta(ctx, tx, postID, delta)
		if err != nil {
			return err
		}

		out = &Outcome{PostID: postID, Action: action, Delta: delta, Score: score, UserVote: result}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !found {
		return nil, apperr.NotFound("post %s not found", postID)
	}

	l.casts.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(out.Action))))
	l.logger.Debug("Vote cast",
		zap.Stringer("user_id", userID),
		zap.Stringer("post_id", postID),
		zap.String("action", string(out.Action)),
		zap.Int("delta", out.Delta),
		zap.Int("score", out.Score))

	return out, nil
}

// Retract removes userID's vote on postID if there is one
func (l *Ledger) Retract(ctx context.Context, userID, postID uuid.UUID) (*Outcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "votes.retract")
	defer span.End()

	var out *Outcome
	found, err := l.store.WithinPost(ctx, postID, func(tx Tx) error {
		existing, err := tx.GetVote(ctx, userID, postID)
		if err != nil {
			return fmt.Errorf("failed to read vote: %w", err)
		}

		action, delta := ActionNone, 0
		if existing != nil {
			if err := tx.DeleteVote(ctx, existing.ID); err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
			action, delta = ActionRetracted, -existing.Value
		}

		score, err := l.applyDelta(ctx, tx, postID, delta)
		if err != nil {
			return err
		}

		out = &Outcome{PostID: postID, Action: action, Delta: delta, Score: score}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !found {
		return nil, apperr.NotFound("post %s not found", postID)
	}

	if out.Action != ActionNone {
		l.casts.Add(ctx, 1, metric.WithAttributes(attribute.String("action", string(out.Action))))
	}
	return out, nil
}

func (l *Ledger) applyDelta(ctx context.Context, tx Tx, postID uuid.UUID, delta int) (int, error) {
	if delta != 0 {
		if err := tx.AddScore(ctx, postID, delta, l.clock.Now()); err != nil {
			return 0, fmt.Errorf("failed to update score: %w", err)
		}
	}
	score, err := tx.Score(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to read score: %w", err)
	}
	return score, nil
}

// CurrentVote returns userID's live vote on postID. ok is false when there is none
// or the viewer is anonymous.
func (l *Ledger) CurrentVote(ctx context.Context, userID, postID uuid.UUID) (value int, ok bool, err error) {
	if userID == uuid.Nil {
		return 0, false, nil
	}
	vote, err := l.store.GetVote(ctx, userID, postID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read vote: %w", err)
	}
	if vote == nil {
		return 0, false, nil
	}
	return vote.Value, true, nil
}

// CurrentVotes is the batch form of CurrentVote. Posts without a vote are absent from the map.
func (l *Ledger) CurrentVotes(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if userID == uuid.Nil || len(postIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}
	votes, err := l.store.VotesFor(ctx, userID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}
	return votes, nil
}

// HasVoted reports whether userID holds a live vote on postID
func (l *Ledger) HasVoted(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	_, ok, err := l.CurrentVote(ctx, userID, postID)
	return ok, err
}

// Stats aggregates the live votes of postID
func (l *Ledger) Stats(ctx context.Context, postID uuid.UUID) (*Stats, error) {
	exists, err := l.store.PostExists(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("post %s not found", postID)
	}

	up, down, err := l.store.Tally(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", err)
	}
	return &Stats{Upvotes: up, Downvotes: down, Score: up - down}, nil
}

func intPtr(v int) *int {
	return &v
}
