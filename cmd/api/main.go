package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/clinic-desk/backend/internal/config"
	"github.com/zhouzirui/clinic-desk/backend/internal/handler"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/doctor"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	dialoguesvc "github.com/zhouzirui/clinic-desk/backend/internal/service/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/risk"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/session"
	"github.com/zhouzirui/clinic-desk/backend/internal/telemetry"
)

// sessionBackend is what a flow needs from its session storage.
type sessionBackend interface {
	dialogue.Store
	session.Sweeper
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		log.Printf("warning: tracing disabled: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("warning: failed to flush traces: %v", err)
		}
	}()

	roster := loadRoster(cfg.Roster)

	// Storage: PostgreSQL when configured, memory otherwise
	var (
		repo        booking.Repository = booking.NewMemoryRepository()
		newSessions                    = func(string) (sessionBackend, error) { return session.NewMemoryStore(), nil }
	)
	if cfg.Database.Enabled() {
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()

		pgRepo, err := booking.NewPostgresRepository(ctx, pool)
		if err != nil {
			log.Fatalf("failed to prepare appointment storage: %v", err)
		}
		repo = pgRepo
		newSessions = func(namespace string) (sessionBackend, error) {
			return session.NewPostgresStore(ctx, pool, namespace)
		}
		log.Println("using PostgreSQL for sessions and appointments")
	} else {
		log.Println("DATABASE_URL 未配置，使用内存存储")
	}

	riskSvc, err := risk.NewService(ctx, chatModel(ctx, cfg.AI), risk.Config{
		Enabled: cfg.AI.RiskLLMEnabled,
		Timeout: cfg.AI.RiskTimeout,
	})
	if err != nil {
		log.Printf("warning: failed to initialize risk service: %v", err)
		riskSvc, _ = risk.NewService(ctx, nil, risk.Config{})
	}
	if riskSvc.Enabled() {
		log.Println("no-show risk assessor enabled")
	} else {
		log.Println("no-show risk assessor using heuristics")
	}

	bookingSvc := booking.NewService(roster, repo, booking.WithRiskAssessor(riskSvc))

	// 每个对话流程使用独立的会话存储
	var managers []*dialoguesvc.Manager
	for _, flow := range []*dialogue.Flow{dialogue.BookingFlow(), dialogue.ReceptionFlow()} {
		store, err := newSessions(flow.Name)
		if err != nil {
			log.Fatalf("failed to prepare session storage: %v", err)
		}
		go session.RunJanitor(ctx, store, cfg.Dialogue.SweepInterval, cfg.Dialogue.SessionIdleTTL)

		manager, err := dialoguesvc.NewManager(flow, store,
			dialoguesvc.WithSlotChecker(bookingSvc),
			dialoguesvc.WithLocation(cfg.Dialogue.Location))
		if err != nil {
			log.Fatalf("failed to create %s dialogue: %v", flow.Name, err)
		}
		managers = append(managers, manager)
	}
	desk := frontdesk.New(bookingSvc, managers...)

	router := handler.NewRouter(desk, bookingSvc, cfg.Server.AllowedOrigins)

	startServer(ctx, cfg.Server, router)
}

// loadRoster reads the doctor roster file, falling back to the built-in roster.
func loadRoster(cfg config.RosterConfig) *doctor.MemoryStore {
	if cfg.File == "" {
		return doctor.NewMemoryStore(doctor.Seed())
	}

	doctors, v, err := doctor.LoadRoster(cfg.File)
	if err != nil {
		log.Printf("warning: failed to load roster %s: %v", cfg.File, err)
		log.Println("continuing with the built-in roster")
		return doctor.NewMemoryStore(doctor.Seed())
	}

	store := doctor.NewMemoryStore(doctors)
	if cfg.Watch {
		doctor.WatchRoster(v, store)
	}
	log.Printf("loaded %d doctors from %s", len(doctors), cfg.File)
	return store
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func chatModel(ctx context.Context, cfg config.AIConfig) model.ChatModel {
	if !cfg.Enabled() || !cfg.RiskLLMEnabled {
		log.Println("Ark 凭证未配置或风险评估未开启，跳过大模型初始化")
		return nil
	}
	cm, err := cfg.NewChatModel(ctx)
	if err != nil {
		log.Printf("warning: failed to initialize chat model: %v", err)
		return nil
	}
	return cm
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Clinic desk backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
