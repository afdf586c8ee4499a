package feed

import (
	"slices"

	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/apperr"
	"github.com/skypoint/socialfeed/internal/models"
)

// Variant selects how candidates are filtered and ordered
type Variant string

const (
	Personalized Variant = "personalized"
	Public       Variant = "public"
	Following    Variant = "following"
)

// ParseVariant maps a request value to a Variant. Empty means personalized.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", Personalized:
		return Personalized, nil
	case Public, Following:
		return Variant(s), nil
	default:
		return "", apperr.InvalidArgument("unknown feed type %q", s)
	}
}

// Candidate is a post eligible for a feed, with its comment count
type Candidate struct {
	Post         models.Post
	CommentCount int64
}

type followSet map[uuid.UUID]struct{}

func (f followSet) has(id uuid.UUID) bool {
	_, ok := f[id]
	return ok
}

// ids returns the set in ascending byte order
func (f followSet) ids() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(f))
	for id := range f {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return out
}

// Order is one sort term of a ranked feed
type Order int

const (
	// FollowedFirst puts posts by followed authors ahead of all others
	FollowedFirst Order = iota
	ScoreDesc
	CommentsDesc
	NewestFirst
	// IDAsc breaks every remaining tie so consecutive pages never overlap
	IDAsc
)

// Ordering returns the sort terms of v, most significant first
func (v Variant) Ordering() []Order {
	switch v {
	case Public:
		return []Order{ScoreDesc, CommentsDesc, NewestFirst, IDAsc}
	case Following:
		return []Order{NewestFirst, IDAsc}
	default:
		return []Order{FollowedFirst, ScoreDesc, CommentsDesc, NewestFirst, IDAsc}
	}
}

// OnlyFollowed reports whether v restricts candidates to followed authors
func (v Variant) OnlyFollowed() bool {
	return v == Following
}

// Query selects one window of a variant's ranked candidates
type Query struct {
	Variant Variant
	// Followed holds the viewer's followed authors in ascending order
	Followed []uuid.UUID
	Offset   int
	Limit    int
}

// followingFunc reports the follow flag rendered on items of v
func followingFunc(v Variant, follows followSet) func(authorID uuid.UUID) bool {
	switch v {
	case Public:
		return func(uuid.UUID) bool { return false }
	case Following:
		return func(uuid.UUID) bool { return true }
	default:
		return follows.has
	}
}
