package database

import (
	"fmt"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	"github.com/CHEzRIF21/logiclinic/internal/domain"
	"github.com/CHEzRIF21/logiclinic/internal/domain/billing"
	"github.com/CHEzRIF21/logiclinic/internal/domain/dispensation"
	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pricing"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	schemas := []string{"auth", "audit", "clinical", "pharmacy", "billing"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&domain.Clinic{},
		&domain.User{},
		&domain.AuditLog{},
		&patient.Patient{},
		&prescription.Prescription{},
		&prescription.Line{},
		&pharmacy.Product{},
		&pharmacy.Lot{},
		&pharmacy.StockMovement{},
		&dispensation.Dispensation{},
		&dispensation.Line{},
		&billing.Ticket{},
		&billing.Invoice{},
		&billing.Payment{},
		&billing.CashEntry{},
		&pricing.BillableService{},
		&pricing.ClinicPricing{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []struct {
		name  string
		query string
	}{
		// Patient search: GIN index for full-text search on name fields
		{
			name:  "idx_patients_name_trgm",
			query: `CREATE INDEX IF NOT EXISTS idx_patients_name_trgm ON clinical.patients USING gin ((nom || ' ' || prenoms) gin_trgm_ops) WHERE deleted_at IS NULL`,
		},
		{
			name:  "idx_prescriptions_active",
			query: `CREATE INDEX IF NOT EXISTS idx_prescriptions_active ON clinical.prescriptions (clinic_id, patient_id, date_prescription) WHERE deleted_at IS NULL AND statut IN ('PRESCRIT', 'PARTIELLEMENT_DISPENSE')`,
		},
		// FEFO scan: lots with stock, earliest expiration first
		{
			name:  "idx_lots_fefo",
			query: `CREATE INDEX IF NOT EXISTS idx_lots_fefo ON pharmacy.lots (clinic_id, medicament_id, date_expiration) WHERE statut = 'actif' AND quantite_disponible > 0`,
		},
		{
			name:  "idx_tickets_pending",
			query: `CREATE INDEX IF NOT EXISTS idx_tickets_pending ON billing.tickets_facturation (clinic_id, patient_id, created_at) WHERE statut = 'en_attente'`,
		},
		{
			name:  "idx_movements_lot_time",
			query: `CREATE INDEX IF NOT EXISTS idx_movements_lot_time ON pharmacy.stock_movements (lot_id, created_at DESC)`,
		},
	}

	for _, idx := range indexes {
		_ = db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error

		if err := db.Exec(idx.query).Error; err != nil {
			_ = err
		}
	}

	return nil
}
