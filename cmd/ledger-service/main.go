package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	attendanceevents "github.com/workledger/workledger-backend/internal/attendance/events"
	attendancehandler "github.com/workledger/workledger-backend/internal/attendance/handler"
	attendancerepo "github.com/workledger/workledger-backend/internal/attendance/repository"
	attendanceservice "github.com/workledger/workledger-backend/internal/attendance/service"
	"github.com/workledger/workledger-backend/internal/auth/jwt"
	ledgerconsumers "github.com/workledger/workledger-backend/internal/ledger/consumers"
	ledgerdomain "github.com/workledger/workledger-backend/internal/ledger/domain"
	ledgerevents "github.com/workledger/workledger-backend/internal/ledger/events"
	ledgerhandler "github.com/workledger/workledger-backend/internal/ledger/handler"
	ledgerrepo "github.com/workledger/workledger-backend/internal/ledger/repository"
	ledgerservice "github.com/workledger/workledger-backend/internal/ledger/service"
	staffconsumers "github.com/workledger/workledger-backend/internal/staff/consumers"
	staffrepo "github.com/workledger/workledger-backend/internal/staff/repository"
	"github.com/workledger/workledger-backend/migrations"
	"github.com/workledger/workledger-backend/pkg/config"
	"github.com/workledger/workledger-backend/pkg/database"
	"github.com/workledger/workledger-backend/pkg/httputil"
	"github.com/workledger/workledger-backend/pkg/logger"
	"github.com/workledger/workledger-backend/pkg/messaging"
	"github.com/workledger/workledger-backend/pkg/permissions"
)

const serviceName = "ledger-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting Ledger Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Apply(ctx, db.DB); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	if err := rmq.DeclareDeadLetterQueue(serviceName); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	// Initialize event publishers
	attendancePublisher, err := attendanceevents.NewAttendanceEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create attendance event publisher")
	}
	ledgerPublisher, err := ledgerevents.NewLedgerEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create ledger event publisher")
	}

	// Initialize repositories
	employeeRepo := staffrepo.NewEmployeeRepository(db)
	tenantRepo := staffrepo.NewTenantRepository(db)
	attendanceRepo := attendancerepo.NewAttendanceRepository(db)
	ledgerRepo := ledgerrepo.NewLedgerRepository(db)

	// Initialize services. The ledger repository doubles as the period lock for
	// attendance writes.
	attendanceService := attendanceservice.NewAttendanceService(attendanceRepo, employeeRepo, ledgerRepo, attendancePublisher, log)
	policy := ledgerdomain.Policy{
		EnforceLoanGate:        cfg.Ledger.EnforceLoanGate,
		CarryOverpaymentCredit: cfg.Ledger.CarryOverpaymentCredit,
	}
	ledgerService := ledgerservice.NewLedgerService(ledgerRepo, employeeRepo, attendanceService, ledgerPublisher, policy, cfg.Scheduler.Workers, log)

	// Initialize handlers
	attendanceHandler := attendancehandler.NewAttendanceHandler(attendanceService, log)
	ledgerHandler := ledgerhandler.NewLedgerHandler(ledgerService, log)

	// Start consumers
	directoryConsumer, err := staffconsumers.NewDirectoryConsumer(rmq, employeeRepo, tenantRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create directory consumer")
	}
	if err := directoryConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start directory consumer")
	}

	generationConsumer, err := ledgerconsumers.NewGenerationConsumer(rmq, ledgerService, tenantRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create generation consumer")
	}
	if err := generationConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start generation consumer")
	}

	// Start the monthly scheduler
	var scheduler *ledgerservice.MonthlyScheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = ledgerservice.NewMonthlyScheduler(ledgerService, tenantRepo, &cfg.Scheduler, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create monthly scheduler")
		}
		scheduler.Start()
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httputil.Authenticate(jwt.NewManager(&cfg.JWT))) // skips /health

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  serviceName,
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(httputil.RequirePermission(permissions.Attendance))
			attendanceHandler.Routes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(httputil.RequirePermission(permissions.Ledger))
			ledgerHandler.Routes(r)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop background work before the HTTP server
	if scheduler != nil {
		scheduler.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
