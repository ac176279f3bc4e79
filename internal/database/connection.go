// internal/database/connection.go
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	DB, err = gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == "sqlite" {
		// one writer at a time keeps the order counter update serialized
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connection established")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.AdminKey{},
		&models.Setting{},
		&models.AuditLog{},
		&models.Color{},
		&models.YarnType{},
		&models.Product{},
		&models.ProductYarnComposition{},
		&models.YarnPrice{},
		&models.FreightPrice{},
		&models.Tinturaria{},
		&models.DyeingCost{},
		&models.OrderCounter{},
		&models.Quote{},
		&models.Document{},
		&models.ERPSubmission{},
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if err := ensureOrderCounter(db); err != nil {
		return fmt.Errorf("failed to seed order counter: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_quotes_created_at ON quotes(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_quotes_kind_created ON quotes(kind, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_dyeing_costs_pair ON dyeing_costs(tinturaria_id, product_id, cost)",
		"CREATE INDEX IF NOT EXISTS idx_yarn_prices_date ON yarn_prices(effective_date)",
		"CREATE INDEX IF NOT EXISTS idx_erp_submissions_quote ON erp_submissions(quote_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	if db.Dialector.Name() == "postgres" {
		indexes = append(indexes,
			"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('portuguese', code || ' ' || name))",
		)
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	return nil
}

// ensureOrderCounter creates the quote counter row, starting after the
// highest order number already stored.
func ensureOrderCounter(db *gorm.DB) error {
	var maxOrder int64
	if err := db.Model(&models.Quote{}).Unscoped().
		Select("COALESCE(MAX(order_number), 0)").Scan(&maxOrder).Error; err != nil {
		return err
	}

	counter := models.OrderCounter{Name: models.QuoteOrderSequence, Value: maxOrder}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error
}

// Seed initial data
func SeedInitialData(db *gorm.DB, cfg *config.Config) error {
	logrus.Info("Seeding initial data...")

	admin, err := seedAdmin(db, cfg.Admin)
	if err != nil {
		return err
	}

	yarnTypes := []string{"Poliéster", "Poliamida", "Algodão", "Viscose", "Elastano 20", "Elastano 40"}
	for _, name := range yarnTypes {
		yarn := models.YarnType{Name: name, Unit: "KG"}
		if err := db.Where(models.YarnType{Name: name}).FirstOrCreate(&yarn).Error; err != nil {
			logrus.WithError(err).WithField("yarn_type", name).Warn("Failed to seed yarn type")
		}
	}

	defaultSettings := []models.Setting{
		{
			Category:    "pricing",
			Key:         "default_conversion_factor",
			Value:       models.JSONB{"value": cfg.Pricing.DefaultConversionFactor},
			DataType:    "float",
			Description: "Conversion factor applied when a tinturaria has none",
		},
		{
			Category:    "documents",
			Key:         "footer_text",
			Value:       models.JSONB{"value": "Valores sujeitos a alteração sem aviso prévio."},
			DataType:    "string",
			Description: "Text printed at the bottom of quote and order documents",
		},
		{
			Category:    "erp",
			Key:         "enabled",
			Value:       models.JSONB{"value": cfg.ERP.Enabled},
			DataType:    "boolean",
			Description: "Allow sending confirmed orders to the ERP",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.Setting{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)

		if count == 0 {
			setting.Version = 1
			setting.UpdatedBy = &admin.ID
			if err := db.Create(&setting).Error; err != nil {
				logrus.WithError(err).Warnf("Failed to create setting %s.%s", setting.Category, setting.Key)
			}
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

func seedAdmin(db *gorm.DB, cfg config.AdminConfig) (*models.User, error) {
	var admin models.User
	err := db.Where("role = ?", models.UserRoleAdmin).First(&admin).Error
	if err == nil {
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}

	admin = models.User{
		Email:    cfg.Email,
		FullName: "Administrador",
		Role:     models.UserRoleAdmin,
	}
	if err := admin.SetPassword(cfg.Password); err != nil {
		return nil, fmt.Errorf("failed to set admin password: %w", err)
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("email", admin.Email).Info("Default admin user created")
	return &admin, nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
