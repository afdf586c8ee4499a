package votes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/apperr"
	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/internal/models"
)

// memStore keeps posts and votes in maps, with one lock per post for WithinPost
type memStore struct {
	mu     sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex
	scores map[uuid.UUID]int
	votes  map[uuid.UUID]*models.Vote // by vote id
	// updated holds each post's updated_at as written by AddScore
	updated map[uuid.UUID]time.Time
	failOn  string
}

func newMemStore(posts ...uuid.UUID) *memStore {
	s := &memStore{
		locks:   make(map[uuid.UUID]*sync.Mutex),
		scores:  make(map[uuid.UUID]int),
		votes:   make(map[uuid.UUID]*models.Vote),
		updated: make(map[uuid.UUID]time.Time),
	}
	for _, id := range posts {
		s.locks[id] = &sync.Mutex{}
		s.scores[id] = 0
	}
	return s
}

func (s *memStore) WithinPost(ctx context.Context, postID uuid.UUID, fn func(tx Tx) error) (bool, error) {
	s.mu.Lock()
	lock, ok := s.locks[postID]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	lock.Lock()
	defer lock.Unlock()

	tx := &memTx{store: s, votes: make(map[uuid.UUID]*models.Vote), deleted: make(map[uuid.UUID]bool)}
	if err := fn(tx); err != nil {
		return true, err
	}
	tx.commit()
	return true, nil
}

func (s *memStore) PostExists(ctx context.Context, postID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.scores[postID]
	return ok, nil
}

func (s *memStore) GetVote(ctx context.Context, userID, postID uuid.UUID) (*models.Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(userID, postID), nil
}

func (s *memStore) findLocked(userID, postID uuid.UUID) *models.Vote {
	for _, v := range s.votes {
		if v.UserID == userID && v.PostID == postID {
			cp := *v
			return &cp
		}
	}
	return nil
}

func (s *memStore) VotesFor(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]int)
	for _, id := range postIDs {
		if v := s.findLocked(userID, id); v != nil {
			out[id] = v.Value
		}
	}
	return out, nil
}

func (s *memStore) Tally(ctx context.Context, postID uuid.UUID) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var up, down int64
	for _, v := range s.votes {
		if v.PostID != postID {
			continue
		}
		if v.Value > 0 {
			up++
		} else {
			down++
		}
	}
	return up, down, nil
}

func (s *memStore) score(postID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[postID]
}

// memTx buffers writes and applies them on commit, so a failing callback leaves no trace
type memTx struct {
	store   *memStore
	votes   map[uuid.UUID]*models.Vote
	deleted map[uuid.UUID]bool
	delta   map[uuid.UUID]int
	touched map[uuid.UUID]time.Time
}

func (t *memTx) GetVote(ctx context.Context, userID, postID uuid.UUID) (*models.Vote, error) {
	for _, v := range t.votes {
		if v.UserID == userID && v.PostID == postID {
			cp := *v
			return &cp, nil
		}
	}
	v, _ := t.store.GetVote(ctx, userID, postID)
	if v != nil && t.deleted[v.ID] {
		return nil, nil
	}
	return v, nil
}

func (t *memTx) CreateVote(ctx context.Context, vote *models.Vote) error {
	cp := *vote
	t.votes[vote.ID] = &cp
	return nil
}

func (t *memTx) SetVoteValue(ctx context.Context, voteID uuid.UUID, value int) error {
	if v, ok := t.votes[voteID]; ok {
		v.Value = value
		return nil
	}
	t.store.mu.Lock()
	v, ok := t.store.votes[voteID]
	t.store.mu.Unlock()
	if !ok {
		return errors.New("vote not found")
	}
	cp := *v
	cp.Value = value
	t.votes[voteID] = &cp
	return nil
}

func (t *memTx) DeleteVote(ctx context.Context, voteID uuid.UUID) error {
	delete(t.votes, voteID)
	t.deleted[voteID] = true
	return nil
}

func (t *memTx) AddScore(ctx context.Context, postID uuid.UUID, delta int, at time.Time) error {
	if t.store.failOn == "AddScore" {
		return errors.New("connection reset")
	}
	if t.delta == nil {
		t.delta = make(map[uuid.UUID]int)
		t.touched = make(map[uuid.UUID]time.Time)
	}
	t.delta[postID] += delta
	t.touched[postID] = at
	return nil
}

func (t *memTx) Score(ctx context.Context, postID uuid.UUID) (int, error) {
	return t.store.score(postID) + t.delta[postID], nil
}

func (t *memTx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range t.deleted {
		delete(s.votes, id)
	}
	for id, v := range t.votes {
		s.votes[id] = v
	}
	for id, d := range t.delta {
		s.scores[id] += d
	}
	for id, at := range t.touched {
		s.updated[id] = at
	}
}

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestLedger(posts ...uuid.UUID) (*Ledger, *memStore) {
	store := newMemStore(posts...)
	return NewLedger(store, clock.Fixed(now)), store
}

func assertScoreInvariant(t *testing.T, l *Ledger, store *memStore, postID uuid.UUID) {
	t.Helper()
	stats, err := l.Stats(context.Background(), postID)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if got := store.score(postID); int64(got) != stats.Score {
		t.Errorf("post score %d != sum of live votes %d", got, stats.Score)
	}
}

func TestCast_ToggleScenario(t *testing.T) {
	ctx := context.Background()
	post, user := uuid.New(), uuid.New()
	l, store := newTestLedger(post)

	steps := []struct {
		value    int
		action   Action
		score    int
		userVote *int
	}{
		{models.Upvote, ActionCreated, 1, intPtr(1)},
		{models.Upvote, ActionRetracted, 0, nil},
		{models.Downvote, ActionCreated, -1, intPtr(-1)},
	}

	for i, step := range steps {
		out, err := l.Cast(ctx, user, post, step.value)
		if err != nil {
			t.Fatalf("step %d: Cast() error: %v", i, err)
		}
		if out.Action != step.action {
			t.Errorf("step %d: action = %s, want %s", i, out.Action, step.action)
		}
		if out.Score != step.score {
			t.Errorf("step %d: score = %d, want %d", i, out.Score, step.score)
		}
		if (out.UserVote == nil) != (step.userVote == nil) ||
			(out.UserVote != nil && *out.UserVote != *step.userVote) {
			t.Errorf("step %d: userVote = %v, want %v", i, out.UserVote, step.userVote)
		}
		assertScoreInvariant(t, l, store, post)
	}
}

func TestCast_Swing(t *testing.T) {
	ctx := context.Background()
	post, user := uuid.New(), uuid.New()
	l, store := newTestLedger(post)

	if _, err := l.Cast(ctx, user, post, models.Downvote); err != nil {
		t.Fatalf("Cast() error: %v", err)
	}
	out, err := l.Cast(ctx, user, post, models.Upvote)
	if err != nil {
		t.Fatalf("Cast() error: %v", err)
	}

	if out.Action != ActionSwitched {
		t.Errorf("action = %s, want %s", out.Action, ActionSwitched)
	}
	if out.Delta != 2 {
		t.Errorf("delta = %d, want 2", out.Delta)
	}
	if out.Score != 1 {
		t.Errorf("score = %d, want 1", out.Score)
	}

	stats, _ := l.Stats(ctx, post)
	if stats.Upvotes != 1 || stats.Downvotes != 0 {
		t.Errorf("stats = %+v, want 1 up 0 down", stats)
	}
	assertScoreInvariant(t, l, store, post)
}

func TestCast_DoubleCastRestoresScore(t *testing.T) {
	ctx := context.Background()
	post := uuid.New()
	l, store := newTestLedger(post)

	// someone else already voted
	if _, err := l.Cast(ctx, uuid.New(), post, models.Upvote); err != nil {
		t.Fatalf("Cast() error: %v", err)
	}
	before := store.score(post)

	user := uuid.New()
	for _, value := range []int{models.Downvote, models.Upvote} {
		if _, err := l.Cast(ctx, user, post, value); err != nil {
			t.Fatalf("Cast() error: %v", err)
		}
		if _, err := l.Cast(ctx, user, post, value); err != nil {
			t.Fatalf("Cast() error: %v", err)
		}
		if got := store.score(post); got != before {
			t.Errorf("double cast of %d left score %d, want %d", value, got, before)
		}
	}
}

func TestCast_Errors(t *testing.T) {
	ctx := context.Background()
	post := uuid.New()
	l, store := newTestLedger(post)

	tests := []struct {
		name   string
		postID uuid.UUID
		value  int
		kind   apperr.Kind
	}{
		{"zero value", post, 0, apperr.KindInvalidArgument},
		{"out of range", post, 2, apperr.KindInvalidArgument},
		{"missing post", uuid.New(), 1, apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Cast(ctx, uuid.New(), tt.postID, tt.value)
			if got := apperr.KindOf(err); err == nil || got != tt.kind {
				t.Errorf("Cast() error = %v (kind %v), want kind %v", err, got, tt.kind)
			}
		})
	}

	if store.score(post) != 0 {
		t.Errorf("failed casts changed the score to %d", store.score(post))
	}
}

func TestCast_StoreFailureIsNotMasked(t *testing.T) {
	ctx := context.Background()
	post := uuid.New()
	l, store := newTestLedger(post)
	store.failOn = "AddScore"

	_, err := l.Cast(ctx, uuid.New(), post, models.Upvote)
	if err == nil {
		t.Fatal("expected error")
	}
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("kind = %v, want internal", apperr.KindOf(err))
	}

	up, down, _ := store.Tally(ctx, post)
	if up != 0 || down != 0 || store.score(post) != 0 {
		t.Error("failed cast must not leave a partial vote or score change")
	}
}

func TestCast_ConcurrentSamePost(t *testing.T) {
	ctx := context.Background()
	post := uuid.New()
	l, store := newTestLedger(post)

	const voters = 50
	users := make([]uuid.UUID, voters)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user uuid.UUID) {
			defer wg.Done()
			value := models.Upvote
			if i%3 == 0 {
				value = models.Downvote
			}
			// cast, swing, swing back: net effect is a single vote of value
			for _, v := range []int{value, -value, value} {
				if _, err := l.Cast(ctx, user, post, v); err != nil {
					t.Errorf("Cast() error: %v", err)
				}
			}
		}(i, user)
	}
	wg.Wait()

	want := 0
	for i := range users {
		if i%3 == 0 {
			want--
		} else {
			want++
		}
	}
	if got := store.score(post); got != want {
		t.Errorf("score = %d, want %d", got, want)
	}
	assertScoreInvariant(t, l, store, post)
}

func TestRetract(t *testing.T) {
	ctx := context.Background()
	post, user := uuid.New(), uuid.New()
	l, store := newTestLedger(post)

	out, err := l.Retract(ctx, user, post)
	if err != nil {
		t.Fatalf("Retract() without vote error: %v", err)
	}
	if out.Action != ActionNone || out.Score != 0 {
		t.Errorf("Retract() without vote = %+v", out)
	}

	if _, err := l.Cast(ctx, user, post, models.Downvote); err != nil {
		t.Fatalf("Cast() error: %v", err)
	}
	out, err = l.Retract(ctx, user, post)
	if err != nil {
		t.Fatalf("Retract() error: %v", err)
	}
	if out.Action != ActionRetracted || out.Delta != 1 || out.Score != 0 {
		t.Errorf("Retract() = %+v", out)
	}
	assertScoreInvariant(t, l, store, post)

	if _, err := l.Retract(ctx, user, uuid.New()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Retract() on missing post error = %v, want not found", err)
	}
}

func TestCastAndRetract_TouchPost(t *testing.T) {
	ctx := context.Background()
	post, user := uuid.New(), uuid.New()
	l, store := newTestLedger(post)

	if _, err := l.Retract(ctx, user, post); err != nil {
		t.Fatalf("Retract() error: %v", err)
	}
	if _, ok := store.updated[post]; ok {
		t.Errorf("Retract() without a vote should leave the post untouched")
	}

	if _, err := l.Cast(ctx, user, post, models.Upvote); err != nil {
		t.Fatalf("Cast() error: %v", err)
	}
	if got := store.updated[post]; !got.Equal(now) {
		t.Errorf("Cast() updated_at = %v, want %v", got, now)
	}

	delete(store.updated, post)
	if _, err := l.Retract(ctx, user, post); err != nil {
		t.Fatalf("Retract() error: %v", err)
	}
	if got := store.updated[post]; !got.Equal(now) {
		t.Errorf("Retract() updated_at = %v, want %v", got, now)
	}
}

func TestCurrentVote(t *testing.T) {
	ctx := context.Background()
	post, user := uuid.New(), uuid.New()
	l, _ := newTestLedger(post)

	if _, ok, err := l.CurrentVote(ctx, user, post); err != nil || ok {
		t.Errorf("CurrentVote() before cast = ok %v err %v", ok, err)
	}

	if _, err := l.Cast(ctx, user, post, models.Downvote); err != nil {
		t.Fatalf("Cast() error: %v", err)
	}

	value, ok, err := l.CurrentVote(ctx, user, post)
	if err != nil || !ok || value != models.Downvote {
		t.Errorf("CurrentVote() = %d, %v, %v", value, ok, err)
	}

	if _, ok, _ := l.CurrentVote(ctx, uuid.Nil, post); ok {
		t.Error("anonymous viewer should have no vote")
	}

	voted, err := l.HasVoted(ctx, user, post)
	if err != nil || !voted {
		t.Errorf("HasVoted() = %v, %v", voted, err)
	}

	other := uuid.New()
	votes, err := l.CurrentVotes(ctx, user, []uuid.UUID{post, other})
	if err != nil {
		t.Fatalf("CurrentVotes() error: %v", err)
	}
	if len(votes) != 1 || votes[post] != models.Downvote {
		t.Errorf("CurrentVotes() = %v", votes)
	}
}

func TestStats_MissingPost(t *testing.T) {
	l, _ := newTestLedger()
	if _, err := l.Stats(context.Background(), uuid.New()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Stats() error = %v, want not found", err)
	}
}
