package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	v1 "github.com/CHEzRIF21/logiclinic/internal/handler/v1"
	"github.com/CHEzRIF21/logiclinic/internal/repository/postgres"
	"github.com/CHEzRIF21/logiclinic/internal/service"
	"github.com/CHEzRIF21/logiclinic/pkg/auth"
	"github.com/CHEzRIF21/logiclinic/pkg/database"
	"github.com/CHEzRIF21/logiclinic/pkg/logger"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/CHEzRIF21/logiclinic/pkg/tracer"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("loading config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("building logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector(cfg.App.Name)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	userRepo := postgres.NewUserRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	productRepo := postgres.NewProductRepository(db)
	lotRepo := postgres.NewLotRepository(db)
	movementRepo := postgres.NewMovementRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	dispensationRepo := postgres.NewDispensationRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	cashRepo := postgres.NewCashRepository(db)
	pricingRepo := postgres.NewPricingRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log)
	defer auditSvc.Shutdown()

	authSvc := service.NewAuthService(userRepo, jwtManager, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, collector, log)
	stockSvc := service.NewStockService(productRepo, lotRepo, movementRepo, auditSvc, collector, cfg.Clinic, log)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, patientRepo, auditSvc, collector, cfg.Clinic, log)
	billingSvc := service.NewBillingService(ticketRepo, invoiceRepo, cashRepo, clinicRepo, auditSvc, collector, log)
	dispensationSvc := service.NewDispensationService(
		dispensationRepo, prescriptionRepo, patientRepo, lotRepo,
		billingSvc, auditSvc, collector, cfg.Clinic, log,
	)
	pricingSvc := service.NewPricingService(pricingRepo, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:          cfg,
		JWTManager:      jwtManager,
		Metrics:         collector,
		Log:             log,
		AuthSvc:         authSvc,
		PatientSvc:      patientSvc,
		StockSvc:        stockSvc,
		PrescriptionSvc: prescriptionSvc,
		DispensationSvc: dispensationSvc,
		BillingSvc:      billingSvc,
		PricingSvc:      pricingSvc,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
