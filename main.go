package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/coscribe/coscribe/handlers"
	"github.com/coscribe/coscribe/internal/config"
	"github.com/coscribe/coscribe/internal/database"
	"github.com/coscribe/coscribe/internal/hub"
	"github.com/coscribe/coscribe/internal/note/handler"
	noterepo "github.com/coscribe/coscribe/internal/note/repository"
	noteservice "github.com/coscribe/coscribe/internal/note/service"
	"github.com/coscribe/coscribe/internal/oidc"
	"github.com/coscribe/coscribe/internal/presence"
	"github.com/coscribe/coscribe/internal/tokens"
	"github.com/coscribe/coscribe/internal/users"
	"github.com/coscribe/coscribe/pkg/logger"
	"github.com/coscribe/coscribe/pkg/metrics"
	"github.com/coscribe/coscribe/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v", cfg.OIDC.Issuer != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple; production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter and presence store can use it
	var redisClient *redis.Client
	if addr := cfg.RedisAddr(); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s", addr)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Token verifier: OIDC when an issuer is configured, HS256 shared-secret
	// otherwise. The insecure verifier is an explicit opt-in for integration
	// tests only.
	var verifier middleware.Verifier
	if cfg.OIDC.Issuer != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		verifier = tokens.NewHSVerifier(cfg.JWT.Secret)
		logger.Infof("using HS256 token verifier")
	}
	if verifier == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = oidc.NewInsecureVerifier()
		} else {
			logger.Fatalf("no token verifier available: set OIDC_ISSUER/OIDC_CLIENT_ID or JWT_SECRET")
		}
	}

	// Storage: MongoDB when configured, in-memory repositories otherwise.
	var noteRepo noterepo.Repository = noterepo.NewMemoryRepo()
	var userRepo users.UserRepository = users.NewMemoryUserRepository()
	mongoReady := false
	if cfg.MongoDB.URI != "" {
		// Retry/backoff when connecting to MongoDB to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts, falling back to in-memory storage: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			noteRepo = noterepo.NewMongoRepo(db.Collection("notes"))
			userRepo = users.NewMongoUserRepository(db.Collection("users"))
			mongoReady = true
			logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
		}
	}

	usersSvc := users.NewService(userRepo)
	noteSvc := noteservice.New(noteRepo, usersSvc)

	// Presence: Redis-backed when available so collaborator lists survive
	// restarts and are shared across instances.
	var presRepo presence.Repository = presence.NewMemoryRepository()
	if redisClient != nil {
		presRepo = presence.NewRedisRepository(redisClient, "", cfg.Presence.TTL)
	}
	presSvc := presence.NewService(presRepo)

	// Live sync hub + websocket endpoint
	liveHub := hub.New(hub.WithPresence(presSvc), hub.WithBuffers(cfg.Hub.SessionBuffer, cfg.Hub.EventBuffer))
	r.GET("/ws", hub.HandleWS(liveHub))

	// keep the local user record in sync with the verified claims so
	// permission targets can be addressed by email
	syncUser := func(c *gin.Context) {
		if v, ok := c.Get("claims"); ok {
			if cm, ok2 := v.(map[string]interface{}); ok2 {
				if _, err := usersSvc.UpsertFromClaims(c.Request.Context(), cm); err != nil {
					logger.Warnf("user sync failed: %v", err)
				}
			}
		}
		c.Next()
	}

	authMW := middleware.AuthMiddleware(verifier)
	handler.New(noteSvc, presSvc).Register(r, authMW, syncUser)

	api := r.Group("/api", authMW, syncUser)
	api.GET("/me", func(c *gin.Context) {
		claims, _ := c.Get("claims")
		if cm, ok := claims.(map[string]interface{}); ok {
			if u, err := usersSvc.UpsertFromClaims(c.Request.Context(), cm); err == nil && u != nil {
				c.JSON(http.StatusOK, gin.H{"user": u})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"claims": claims})
	})

	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness reports degraded dependencies; in-memory fallbacks keep the
	// service functional, so only a missing verifier is fatal above
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"verifier": verifier != nil,
			"storage":  true,
			"mongo":    mongoReady || cfg.MongoDB.URI == "",
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil
			if cfg.RateLimit.UseRedis && redisClient == nil {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting coscribe on %s (env=%s)", addr, cfg.Server.Environment)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
