package main

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard-api/api"
	"taskboard-api/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tasksTableName := os.Getenv("TASKS_TABLE")
	usersTableName := os.Getenv("USERS_TABLE")
	activityQueueName := os.Getenv("ACTIVITY_QUEUE")
	if connStr == "" || tasksTableName == "" || usersTableName == "" || activityQueueName == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, tasksTableName, usersTableName, activityQueueName)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	var app api.Storage = store
	var deduper api.Deduper
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(redisOptions(redisConn))
		cacheTTL := envDuration("CACHE_TTL", 5*time.Minute)
		app = storage.NewCache(store, rc, cacheTTL)
		deduper = api.NewRedisDeduper(rc, envDuration("DEDUPER_TTL", 24*time.Hour))
	}

	auth, issuer := buildAuth()

	logger := log.New()
	feed := api.NewActivityFeed(app, logger, api.ActivityFeedConfig{
		Workers:        envInt("ACTIVITY_WORKERS", 8),
		Buffer:         envInt("ACTIVITY_BUFFER", 1024),
		EnqueueTimeout: envDuration("ACTIVITY_TIMEOUT", 60*time.Second),
		HandoffTimeout: envDuration("ACTIVITY_HANDOFF_TIMEOUT", 15*time.Millisecond),
	})
	defer feed.Close()

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))
	e.Use(api.GzipRequestMiddleware())
	e.Use(echoprometheus.NewMiddleware("taskboard"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, app, auth, issuer, deduper, feed, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// buildAuth picks between shared-secret HS256 mode (self-contained login) and
// JWKS RS256 mode (external identity provider).
func buildAuth() (*api.Auth, api.TokenIssuer) {
	audience := os.Getenv("AUTH_AUDIENCE")
	if secret := os.Getenv("AUTH_SHARED_SECRET"); secret != "" {
		a := api.NewSharedSecretAuth([]byte(secret), audience, os.Getenv("AUTH_ISSUER"))
		return a, a
	}

	domain := os.Getenv("AUTH_DOMAIN")
	if audience == "" || domain == "" {
		log.Fatal("missing auth config: set AUTH_SHARED_SECRET or AUTH_AUDIENCE/AUTH_DOMAIN")
	}
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
	if err != nil {
		log.Fatalf("jwks: %v", err)
	}
	// No local issuer in JWKS mode; login returns 501.
	return api.NewAuth(jwks, audience, "https://"+domain+"/"), nil
}

// redisOptions accepts either a redis URL or an Azure-style
// "host:port,password=...,ssl=true" connection string.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("invalid %s: %q", name, v)
	}
	return n
}

func envDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %q", name, v)
	}
	return d
}
