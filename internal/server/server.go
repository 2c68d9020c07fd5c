package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tesvikportal/asistan/config"
	"github.com/tesvikportal/asistan/internal/chat"
	"github.com/tesvikportal/asistan/internal/store"
	"github.com/tesvikportal/asistan/provider"
)

// Run wires dependencies and serves the HTTP API until the process exits.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}

	origins := cfg.Server.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Databases.Postgres.DSN())
	if err != nil {
		return err
	}

	if err := cfg.Providers.OpenAI.Validate(); err != nil {
		return err
	}
	llm, err := provider.NewProvider(provider.OpenAI, cfg.Providers.OpenAI)
	if err != nil {
		return err
	}

	// lexical index over the Q&A corpus, rebuilt on boot
	entries, err := st.ListQuestionVariants(ctx)
	if err != nil {
		return fmt.Errorf("load question corpus: %w", err)
	}
	lexical, err := chat.NewLexicalIndex(entries)
	if err != nil {
		return fmt.Errorf("build lexical index: %w", err)
	}
	log.Printf("indexed %d corpus entries", len(entries))

	var rdb *redis.Client
	var cache *chat.EmbedCache
	if cfg.Databases.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Databases.Redis.Addr(),
			Password: cfg.Databases.Redis.Password,
			DB:       cfg.Databases.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Databases.Redis.Addr(), err)
		}
		cache = &chat.EmbedCache{Rdb: rdb, TTL: cfg.Chat.EmbeddingCacheTTL}
	}

	matcher := &chat.Matcher{
		Vectors:      st,
		Lexical:      lexical,
		Threshold:    cfg.Chat.MatchThreshold,
		LexicalFloor: cfg.Chat.LexicalFloor,
		Limit:        cfg.Chat.MatchCount,
	}
	svc := chat.NewService(llm, matcher, cache, log.New(log.Writer(), "[CHAT] ", log.LstdFlags))

	secret := cfg.General.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (general.jwt_secret)")
	}

	api := e.Group("/api")
	auth := &AuthHandler{Store: st, Secret: []byte(secret)}
	auth.Register(api.Group("/auth"))

	ch := &ChatHandler{Service: svc}
	ch.Register(api.Group("/chat"))

	sh := &SessionsHandler{Store: st}
	sh.Register(api.Group("/sessions"), []byte(secret))

	sweeper := &RetentionSweeper{
		Store:         st,
		Rdb:           rdb,
		RetentionDays: cfg.Chat.RetentionDays,
		CronSpec:      cfg.Chat.RetentionCron,
		Stop:          make(chan struct{}),
	}
	sweeper.Start()

	addr := cfg.Server.Listen
	if addr == "" {
		addr = ":10010"
	}
	e.Server.ReadHeaderTimeout = 10 * time.Second
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
