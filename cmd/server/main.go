package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"inside-notes/internal/artifact"
	"inside-notes/internal/config"
	"inside-notes/internal/core"
	"inside-notes/internal/db"
	httpserver "inside-notes/internal/http"
	"inside-notes/internal/llm"
	"inside-notes/internal/logger"
	"inside-notes/internal/session"
	"inside-notes/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Service)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	// The clientes API always talks to Postgres.  A failed ping is reported
	// by /api/health instead of stopping the process.
	dbConn, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		lg.Fatal("failed to open database", zap.Error(err))
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(cfg.Database.MaxConns)
	dbConn.SetConnMaxIdleTime(30 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	dbUp := dbConn.PingContext(ctx) == nil
	cancel()
	if dbUp {
		if err := db.Migrate(context.Background(), dbConn); err != nil {
			lg.Fatal("failed to run migrations", zap.Error(err))
		}
	} else {
		lg.Warn("database unreachable at startup", zap.String("host", cfg.Database.Host))
	}
	if cfg.UsesPostgres() && !dbUp {
		lg.Fatal("STORAGE_BACKEND=postgres needs a reachable database")
	}

	var (
		visits      core.VisitStore
		annotations core.AnnotationStore
		users       core.UserStore
	)
	if cfg.UsesPostgres() {
		visits = db.NewVisitRepository(dbConn)
		annotations = db.NewAnnotationRepository(dbConn)
		users = db.NewUserRepository(dbConn)
	} else {
		visits = db.NewMemoryVisits()
		annotations = db.NewMemoryAnnotations()
		users = db.NewMemoryUsers()
	}
	seedUsers(context.Background(), users, lg)
	clients := db.NewClientRepository(dbConn, lg)

	llmClient := llm.NewOpenAIClient(llm.Config{
		APIKey:          cfg.OpenAI.APIKey,
		BaseURL:         cfg.OpenAI.BaseURL,
		ChatModel:       cfg.OpenAI.ChatModel,
		SummaryModel:    cfg.OpenAI.SummaryModel,
		TranscribeModel: cfg.OpenAI.TranscribeModel,
	})
	if cfg.OpenAI.APIKey == "" {
		lg.Warn("OPENAI_API_KEY not set; rewrite, transcription and reports will fail")
	}

	prompts := core.NewPromptSet()
	visitSvc := core.NewVisitService(visits, annotations, clients, users)
	annSvc := core.NewAnnotationService(visits, annotations)
	workflows := core.NewWorkflows(core.WorkflowDeps{
		LLM:     llmClient,
		Prompts: prompts,
		Saver:   annSvc,
		Logger:  lg,
	}, visits, annotations, cfg.NotificationTTL)
	workflows.IdleTTL = cfg.WorkflowIdleTTL
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	if cfg.WorkflowIdleTTL > 0 {
		go workflows.Run(runCtx, sweepInterval(cfg.WorkflowIdleTTL))
	}

	var kv session.KV = session.NewMemoryKV()
	if cfg.Redis.Addr != "" {
		rkv := session.NewRedisKV(session.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB))
		defer rkv.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rkv.Ping(pingCtx); err != nil {
			lg.Warn("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		kv = rkv
	}
	sessions := session.NewManager(session.NewStore(kv, cfg.SessionKey, lg), users, lg)
	if err := sessions.Init(context.Background()); err != nil {
		lg.Warn("restore session", zap.Error(err))
	}
	defer sessions.Close()

	var artifacts core.ArtifactStore = artifact.Placeholder{BaseURL: cfg.Report.BaseURL}
	if cfg.Report.Bucket != "" {
		s3c, err := artifact.NewS3Client(context.Background())
		if err != nil {
			lg.Fatal("failed to init s3 client", zap.Error(err))
		}
		artifacts = artifact.NewS3Store(s3c, cfg.Report.Bucket, cfg.Report.BaseURL, lg)
	}

	reports := core.NewReportService(llmClient, visitSvc, annotations, artifacts, lg, reportNotifiers(cfg, dbConn, dbUp, lg)...)

	srv := httpserver.NewServer(httpserver.Deps{
		DB:          dbConn,
		Clients:     clients,
		Users:       users,
		Visits:      visitSvc,
		Annotations: annSvc,
		Reports:     reports,
		Workflows:   workflows,
		Prompts:     prompts,
		Session:     sessions,
		LLM:         llmClient,
		Logger:      lg,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("listening", zap.String("addr", httpSrv.Addr), zap.String("storage", cfg.StorageBackend))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down")
	stopRun()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", zap.Error(err))
	}
}

// reportNotifiers lists who hears about generated reports.  Postgres NOTIFY
// is only used when the database answered at startup.
func reportNotifiers(cfg *config.Config, dbConn *sql.DB, dbUp bool, lg *zap.Logger) []core.ReportNotifier {
	var notifiers []core.ReportNotifier
	if dbUp {
		notifiers = append(notifiers, db.NewNotifier(dbConn, cfg.Report.NotifyChannel))
	}
	if cfg.Report.WebhookURL != "" {
		notifiers = append(notifiers, webhook.NewNotifier(cfg.Report.WebhookURL, lg))
	}
	return notifiers
}

// sweepInterval checks for idle workflows a few times per ttl.
func sweepInterval(ttl time.Duration) time.Duration {
	every := ttl / 4
	if every < time.Minute {
		every = time.Minute
	}
	return every
}

// seedUsers makes sure the demo accounts used by login exist.
func seedUsers(ctx context.Context, users core.UserStore, lg *zap.Logger) {
	for _, u := range db.DemoUsers() {
		u := u
		if _, err := users.GetByEmail(ctx, u.Email); err == nil {
			continue
		}
		if err := users.Create(ctx, &u); err != nil && !errors.Is(err, db.ErrDuplicate) {
			lg.Warn("seed user", zap.String("email", u.Email), zap.Error(err))
		}
	}
}
