package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/api/social"
	"github.com/skypoint/socialfeed/internal/cache"
	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/internal/comments"
	"github.com/skypoint/socialfeed/internal/db"
	"github.com/skypoint/socialfeed/internal/feed"
	"github.com/skypoint/socialfeed/internal/posts"
	socialgraph "github.com/skypoint/socialfeed/internal/social"
	"github.com/skypoint/socialfeed/internal/votes"
	"github.com/skypoint/socialfeed/pkg/config"
	"github.com/skypoint/socialfeed/pkg/logging"
)

// Services are the domain services exposed over JSON-RPC
type Services struct {
	Feed     social.FeedService
	Votes    social.VoteService
	Comments social.CommentService
	Posts    social.PostService
	Follows  social.FollowService
}

// NewServices wires every service over the database and optional cache
func NewServices(database *db.DB, redisCache *cache.Cache, cfg *config.FeedConfig) *Services {
	repo := db.NewRepository(database.DB)
	userRepo := db.NewUserRepository(repo)
	postRepo := db.NewPostRepository(repo)
	voteRepo := db.NewVoteRepository(repo)
	commentRepo := db.NewCommentRepository(repo)
	followRepo := db.NewFollowRepository(repo)

	clk := clock.System{}
	paging := feed.Paging{DefaultPageSize: cfg.DefaultPageSize, MaxPageSize: cfg.MaxPageSize}

	ledger := votes.NewLedger(voteRepo, clk)
	graph := socialgraph.NewGraph(followRepo, redisCache, cfg.FollowCacheTTL)
	enricher := feed.NewEnricher(graph, ledger, userRepo, clk)

	return &Services{
		Feed:     feed.NewEngine(postRepo, graph, ledger, userRepo, clk, paging),
		Votes:    ledger,
		Comments: comments.NewService(commentRepo, userRepo, clk),
		Posts:    posts.NewService(postRepo, graph, enricher, clk, paging),
		Follows:  graph,
	}
}

// HealthChecker reports the health of a backing service
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router sets up API routes
type Router struct {
	handler *JSONRPCHandler
	db      HealthChecker
	cache   *cache.Cache
	logger  *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(services *Services, database HealthChecker, redisCache *cache.Cache) *Router {
	router := &Router{
		handler: NewJSONRPCHandler(),
		db:      database,
		cache:   redisCache,
		logger:  logging.WithComponent("api-router"),
	}

	router.registerMethods(services)

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods(s *Services) {
	feedAPI := social.NewFeedAPI(s.Feed)
	r.handler.RegisterMethod("feed.get_feed", feedAPI.GetFeed)

	voteAPI := social.NewVoteAPI(s.Votes)
	r.handler.RegisterMethod("votes.cast", voteAPI.Cast)
	r.handler.RegisterMethod("votes.retract", voteAPI.Retract)
	r.handler.RegisterMethod("votes.get_stats", voteAPI.GetStats)
	r.handler.RegisterMethod("votes.get_vote", voteAPI.GetVote)
	r.handler.RegisterMethod("votes.has_voted", voteAPI.HasVoted)

	commentAPI := social.NewCommentAPI(s.Comments)
	r.handler.RegisterMethod("comments.get_thread", commentAPI.GetThread)
	r.handler.RegisterMethod("comments.get_comment", commentAPI.GetComment)
	r.handler.RegisterMethod("comments.create", commentAPI.Create)
	r.handler.RegisterMethod("comments.update", commentAPI.Update)
	r.handler.RegisterMethod("comments.delete", commentAPI.Delete)
	r.handler.RegisterMethod("comments.count", commentAPI.Count)

	postAPI := social.NewPostAPI(s.Posts)
	r.handler.RegisterMethod("posts.create", postAPI.Create)
	r.handler.RegisterMethod("posts.get", postAPI.Get)
	r.handler.RegisterMethod("posts.update", postAPI.Update)
	r.handler.RegisterMethod("posts.delete", postAPI.Delete)
	r.handler.RegisterMethod("posts.list_by_user", postAPI.ListByUser)

	followAPI := social.NewFollowAPI(s.Follows)
	r.handler.RegisterMethod("follow.follow", followAPI.Follow)
	r.handler.RegisterMethod("follow.unfollow", followAPI.Unfollow)
	r.handler.RegisterMethod("follow.is_following", followAPI.IsFollowing)
	r.handler.RegisterMethod("follow.get_counts", followAPI.GetCounts)

	r.logger.Debug("Registered JSON-RPC methods", zap.Int("count", len(r.handler.methods)))
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if r.db != nil {
		if err := r.db.Health(ctx); err != nil {
			r.logger.Warn("Database health check failed", zap.Error(err))
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "OK"
		}
	}

	switch err := r.cache.Health(ctx); {
	case err == nil:
		checks["redis"] = "OK"
	case errors.Is(err, cache.ErrCacheDisabled):
		checks["redis"] = "disabled"
	default:
		// the follow graph falls back to the database
		r.logger.Warn("Redis health check failed", zap.Error(err))
		checks["redis"] = "unavailable"
	}

	body := gin.H{
		"status":  "OK",
		"service": "socialfeed-api",
		"checks":  checks,
	}
	if status != http.StatusOK {
		body["status"] = "DEGRADED"
	}
	c.JSON(status, body)
}
