// Package feed ranks and pages posts for a viewer.
package feed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/pkg/logging"
	"github.com/skypoint/socialfeed/pkg/telemetry"
)

// Store counts and loads ranked feed candidates
type Store interface {
	// CountCandidates returns how many posts q.Variant ranks, ignoring the window
	CountCandidates(ctx context.Context, q Query) (int, error)
	// RankedCandidates returns the q.Offset..q.Offset+q.Limit slice of the ranked order
	RankedCandidates(ctx context.Context, q Query) ([]Candidate, error)
}

// Page is one page of a ranked feed
type Page struct {
	Items      []*Item `json:"items"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	HasMore    bool    `json:"hasMore"`
}

// Engine produces ranked feeds
type Engine struct {
	store    Store
	graph    FollowGraph
	enricher *Enricher
	paging   Paging
	logger   *zap.Logger
}

// NewEngine creates a new feed engine
func NewEngine(store Store, graph FollowGraph, votes VoteReader, users UserLookup, clk clock.Clock, paging Paging) *Engine {
	return &Engine{
		store:    store,
		graph:    graph,
		enricher: NewEnricher(graph, votes, users, clk),
		paging:   paging,
		logger:   logging.WithComponent("feed"),
	}
}

// GetFeed returns page of the variant feed for viewerID. viewerID may be uuid.Nil for anonymous viewers.
func (e *Engine) GetFeed(ctx context.Context, viewerID uuid.UUID, variant Variant, page, pageSize int) (*Page, error) {
	ctx, span := telemetry.StartSpan(ctx, "feed.get_feed", trace.WithAttributes(
		attribute.String("feed.variant", string(variant)),
	))
	defer span.End()

	page, pageSize = e.paging.Clamp(page, pageSize)
	out := &Page{Items: []*Item{}, Page: page, PageSize: pageSize}

	var follows followSet = map[uuid.UUID]struct{}{}
	if variant != Public {
		ids, err := e.graph.FollowingIDs(ctx, viewerID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load follow set: %w", err)
		}
		follows = ids
	}

	if variant == Following && len(follows) == 0 {
		return out, nil
	}

	q := Query{Variant: variant}
	if variant != Public {
		q.Followed = follows.ids()
	}

	total, err := e.store.CountCandidates(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to count feed candidates: %w", err)
	}

	start, end, hasMore := window(total, page, pageSize)
	out.TotalCount = total
	out.HasMore = hasMore
	if start == end {
		return out, nil
	}

	q.Offset, q.Limit = start, end-start
	ranked, err := e.store.RankedCandidates(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load feed candidates: %w", err)
	}

	ptrs := make([]*Candidate, len(ranked))
	for i := range ranked {
		ptrs[i] = &ranked[i]
	}

	items, err := e.enricher.Enrich(ctx, viewerID, ptrs, followingFunc(variant, follows))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	out.Items = items

	e.logger.Debug("Assembled feed",
		zap.String("variant", string(variant)),
		zap.Int("total", out.TotalCount),
		zap.Int("page", page),
		zap.Int("items", len(items)))

	return out, nil
}
