package votes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/pkg/logging"
)

// Drift is a post whose stored score disagrees with its live votes
type Drift struct {
	PostID uuid.UUID
	Stored int
	Actual int
}

// AuditStore finds and repairs score drift
type AuditStore interface {
	// Drifted lists every post whose score is not the sum of its votes
	Drifted(ctx context.Context) ([]Drift, error)
	// RepairScore recomputes the score of postID under the post lock and returns the value written
	RepairScore(ctx context.Context, postID uuid.UUID) (int, error)
}

// Report summarizes one reconciliation run
type Report struct {
	Drifted  int
	Repaired int
	Elapsed  time.Duration
}

// Reconciler checks that every post score equals the sum of its live votes
type Reconciler struct {
	store  AuditStore
	clock  clock.Clock
	repair bool
	logger *zap.Logger
}

// NewReconciler creates a new reconciler. With repair set, drifted scores are rewritten.
func NewReconciler(store AuditStore, clk clock.Clock, repair bool) *Reconciler {
	if clk == nil {
		clk = clock.System{}
	}
	return &Reconciler{
		store:  store,
		clock:  clk,
		repair: repair,
		logger: logging.WithComponent("reconciler"),
	}
}

// Run performs one pass over all posts
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	started := r.clock.Now()
	r.logger.Info("Starting score reconciliation", zap.Bool("repair", r.repair))

	drifts, err := r.store.Drifted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find drifted scores: %w", err)
	}

	report := &Report{Drifted: len(drifts)}
	for _, d := range drifts {
		r.logger.Warn("Score drift",
			zap.Stringer("post_id", d.PostID),
			zap.Int("stored", d.Stored),
			zap.Int("actual", d.Actual))

		if !r.repair {
			continue
		}

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		score, err := r.store.RepairScore(ctx, d.PostID)
		if err != nil {
			return report, fmt.Errorf("failed to repair post %s: %w", d.PostID, err)
		}
		report.Repaired++
		r.logger.Info("Repaired score", zap.Stringer("post_id", d.PostID), zap.Int("score", score))
	}

	report.Elapsed = r.clock.Now().Sub(started)
	r.logger.Info("Score reconciliation finished",
		zap.Int("drifted", report.Drifted),
		zap.Int("repaired", report.Repaired),
		zap.String("elapsed", clock.FormatDuration(report.Elapsed)))

	return report, nil
}
