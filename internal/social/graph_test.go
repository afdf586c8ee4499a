package social

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/skypoint/socialfeed/internal/apperr"
	"github.com/skypoint/socialfeed/internal/cache"
	"github.com/skypoint/socialfeed/internal/models"
)

type edge struct{ from, to uuid.UUID }

type memStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]bool
	edges        map[edge]bool
	followingHit int
	afterRead    func()
}

func newMemStore(users ...uuid.UUID) *memStore {
	s := &memStore{users: map[uuid.UUID]bool{}, edges: map[edge]bool{}}
	for _, u := range users {
		s.users[u] = true
	}
	return s
}

func (s *memStore) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *memStore) AddFollow(_ context.Context, from, to uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[edge{from, to}] = true
	return nil
}

func (s *memStore) RemoveFollow(_ context.Context, from, to uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, edge{from, to})
	return nil
}

func (s *memStore) IsFollowing(_ context.Context, from, to uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edges[edge{from, to}], nil
}

func (s *memStore) FollowingIDs(_ context.Context, from uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	s.followingHit++
	var out []uuid.UUID
	for e := range s.edges {
		if e.from == from {
			out = append(out, e.to)
		}
	}
	s.mu.Unlock()

	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
	return out, nil
}

func (s *memStore) Counts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.FollowCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]models.FollowCounts, len(ids))
	for _, id := range ids {
		var c models.FollowCounts
		for e := range s.edges {
			if e.to == id {
				c.Followers++
			}
			if e.from == id {
				c.Following++
			}
		}
		out[id] = c
	}
	return out, nil
}

func newCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewFromClient(client), mr
}

func TestFollow_Rules(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	store := newMemStore(alice, bob)
	g := NewGraph(store, nil, time.Minute)
	ctx := context.Background()

	if err := g.Follow(ctx, alice, alice); !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Errorf("Expected InvalidArgument on self follow, got %v", err)
	}
	if err := g.Follow(ctx, alice, uuid.New()); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("Expected NotFound for unknown user, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := g.Follow(ctx, alice, bob); err != nil {
			t.Fatalf("Follow #%d failed: %v", i+1, err)
		}
	}

	counts, err := g.Counts(ctx, []uuid.UUID{alice, bob})
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts[bob].Followers != 1 || counts[alice].Following != 1 {
		t.Errorf("Duplicate follow should be a no-op, got %+v", counts)
	}

	if err := g.Unfollow(ctx, alice, bob); err != nil {
		t.Fatalf("Unfollow failed: %v", err)
	}
	if err := g.Unfollow(ctx, alice, bob); err != nil {
		t.Errorf("Unfollow of absent edge should be a no-op, got %v", err)
	}
	if ok, _ := g.IsFollowing(ctx, alice, bob); ok {
		t.Errorf("Expected not following after unfollow")
	}
}

func TestFollowingIDs_CachedAndInvalidated(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	store := newMemStore(alice, bob, carol)
	c, mr := newCache(t)
	g := NewGraph(store, c, time.Minute)
	ctx := context.Background()

	g.Follow(ctx, alice, bob)

	first, err := g.FollowingIDs(ctx, alice)
	if err != nil {
		t.Fatalf("FollowingIDs failed: %v", err)
	}
	if _, ok := first[bob]; !ok || len(first) != 1 {
		t.Fatalf("Expected {bob}, got %v", first)
	}
	if !mr.Exists("socialfeed:following:" + alice.String() + ":1") {
		t.Errorf("Expected following set to be cached")
	}

	g.FollowingIDs(ctx, alice)
	if store.followingHit != 1 {
		t.Errorf("Expected second read from cache, store hit %d times", store.followingHit)
	}

	if err := g.Follow(ctx, alice, carol); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}
	after, _ := g.FollowingIDs(ctx, alice)
	if _, ok := after[carol]; !ok {
		t.Errorf("Expected cache invalidated after follow, got %v", after)
	}
}

func TestFollowingIDs_FollowDuringLoadIsNotMasked(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	store := newMemStore(alice, bob, carol)
	c, _ := newCache(t)
	g := NewGraph(store, c, time.Minute)
	ctx := context.Background()

	if err := g.Follow(ctx, alice, bob); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	// carol is followed after the store read but before the loaded set is cached
	store.afterRead = func() {
		if err := g.Follow(ctx, alice, carol); err != nil {
			t.Errorf("Follow failed: %v", err)
		}
	}
	loaded, err := g.FollowingIDs(ctx, alice)
	if err != nil {
		t.Fatalf("FollowingIDs failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected the set read before the follow, got %v", loaded)
	}

	next, err := g.FollowingIDs(ctx, alice)
	if err != nil {
		t.Fatalf("FollowingIDs failed: %v", err)
	}
	if _, ok := next[carol]; !ok || len(next) != 2 {
		t.Errorf("Expected {bob, carol} after the concurrent follow, got %v", next)
	}
}

func TestFollowingIDs_CacheDown(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	store := newMemStore(alice, bob)
	c, mr := newCache(t)
	g := NewGraph(store, c, time.Minute)
	ctx := context.Background()

	g.Follow(ctx, alice, bob)
	mr.Close()

	ids, err := g.FollowingIDs(ctx, alice)
	if err != nil {
		t.Fatalf("Cache failure should fall back to the store, got %v", err)
	}
	if _, ok := ids[bob]; !ok {
		t.Errorf("Expected bob from store fallback")
	}
}

func TestAnonymousViewer(t *testing.T) {
	g := NewGraph(newMemStore(), nil, time.Minute)
	ctx := context.Background()

	ids, err := g.FollowingIDs(ctx, uuid.Nil)
	if err != nil || len(ids) != 0 {
		t.Errorf("Expected empty set for anonymous viewer, got %v (%v)", ids, err)
	}
	if ok, _ := g.IsFollowing(ctx, uuid.Nil, uuid.New()); ok {
		t.Errorf("Anonymous viewer should follow nobody")
	}
}
