package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clauselens/clauselens/internal/application/coordinator"
	appsession "github.com/clauselens/clauselens/internal/application/session"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/domain/analysis"
	domainconv "github.com/clauselens/clauselens/internal/domain/conversation"
	domainsession "github.com/clauselens/clauselens/internal/domain/session"
	aiopenai "github.com/clauselens/clauselens/internal/infra/ai/openai"
	mysqlp "github.com/clauselens/clauselens/internal/infra/db/mysql"
	postgresp "github.com/clauselens/clauselens/internal/infra/db/postgres"
	"github.com/clauselens/clauselens/internal/infra/editor/memdoc"
	"github.com/clauselens/clauselens/internal/infra/httpserver"
	"github.com/clauselens/clauselens/internal/infra/remote"
	minioStore "github.com/clauselens/clauselens/internal/infra/storage"
	"github.com/clauselens/clauselens/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// pick the analysis/Q&A collaborator
	var analyzer analysis.Analyzer
	var answerer domainconv.Answerer
	var backendProbe func(ctx context.Context) bool
	switch cfg.Backend.Mode {
	case "openai":
		cli := aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		analyzer, answerer = cli, cli
	default:
		cli := remote.NewClient(cfg.Backend.BaseURL, time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
		analyzer, answerer = cli, cli
		backendProbe = cli.Health
	}

	// persistence is optional; the session core runs fine without it
	var db *sql.DB
	var history domainsession.Repository
	var convRepo domainconv.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		history = mysqlp.NewSessionRepository(db)
		convRepo = mysqlp.NewConversationRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		history = postgresp.NewSessionRepository(db)
		convRepo = postgresp.NewConversationRepository(db)
	}

	// report archive is optional too
	var reports domainsession.ReportArchive
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		reports = store
	}

	scheme := appsession.DocumentIDScheme(cfg.Session.DocumentIDScheme)

	// each session gets its own document adapter
	manager := coordinator.NewManager(func(tenant, id string) coordinator.Deps {
		return coordinator.Deps{
			Editor:   memdoc.New(""),
			Analyzer: analyzer,
			Answerer: answerer,
			History:  history,
			ConvRepo: convRepo,
			Reports:  reports,
			IDScheme: scheme,
		}
	})

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if cfg.RateLimit.Capacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	}
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	checkers := make(map[string]middleware.HealthChecker)
	if backendProbe != nil {
		checkers["backend"] = &middleware.BackendHealthChecker{Probe: backendProbe}
	}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}
	if len(checkers) > 0 {
		mux.Get("/health/full", middleware.HealthHandler(checkers))
	}
	mux.Mount("/", httpserver.NewRouter(manager, history, convRepo, cfg.Server.CORSOrigins))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // analysis calls can take a while
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
