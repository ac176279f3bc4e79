package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/costing"
	"github.com/serramalhas/malhas-backend/internal/database"
	"github.com/serramalhas/malhas-backend/internal/models"
)

// fixedNow is a mid-month instant so "this month" and "today" are stable.
var fixedNow = time.Date(2026, time.October, 15, 15, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
		Pricing: config.PricingConfig{
			Timezone:          "America/Sao_Paulo",
			MinLotPolyamideKg: 210,
			MinLotDefaultKg:   240,
		},
		WhatsApp: config.WhatsAppConfig{
			SalesNumber:   "5522998833821",
			ContactNumber: "5522997550012",
		},
		Documents: config.DocumentsConfig{
			CompanyName: "FAST Malhas",
			LocalDir:    t.TempDir(),
			PublicURL:   "http://localhost:8080/documents",
		},
		ERP: config.ERPConfig{
			TimeoutSeconds: 5,
		},
	}
}

// testEnv wires the services over one database with a small catalog:
// product 1020 (94% polyester, 6% elastane) dyed at one tinturaria in
// BRANCO and PRETO.
type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	calendar *PricingCalendar

	settings    *SettingsService
	yarns       *YarnService
	freight     *FreightService
	colors      *ColorService
	products    *ProductService
	tinturarias *TinturariaService
	dyeing      *DyeingCostService
	calculator  *CalculatorService
	quotes      *QuoteService

	admin      *models.User
	product    *models.Product
	tinturaria *models.Tinturaria
	poliester  *models.YarnType
	elastano   *models.YarnType
	branco     *models.Color
	preto      *models.Color
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	cfg := testConfig(t)
	env := &testEnv{db: db, cfg: cfg}

	env.calendar = NewPricingCalendar(cfg.Pricing)
	env.calendar.SetClock(func() time.Time { return fixedNow })

	env.settings = NewSettingsService(db)
	env.yarns = NewYarnService(db, env.calendar)
	env.freight = NewFreightService(db, env.calendar)
	env.colors = NewColorService(db)
	env.products = NewProductService(db)
	env.tinturarias = NewTinturariaService(db)
	env.dyeing = NewDyeingCostService(db, env.colors)
	env.calculator = NewCalculatorService(db, cfg.Pricing, env.calendar, env.products,
		env.tinturarias, env.yarns, env.freight, env.dyeing, env.settings)
	env.quotes = NewQuoteService(db, env.calculator)

	env.admin = env.createUser(t, "admin@fastmalhas.com.br", models.UserRoleAdmin)

	var err error
	env.poliester, err = env.yarns.CreateYarnType(&CreateYarnTypeRequest{Name: "Poliéster"})
	require.NoError(t, err)
	env.elastano, err = env.yarns.CreateYarnType(&CreateYarnTypeRequest{Name: "Elastano 20"})
	require.NoError(t, err)
	env.setPrices(t, 15.00, 35.00)

	env.product, err = env.products.CreateProduct(&CreateProductRequest{
		Code:             "1020",
		Name:             "Suplex Light",
		Composition:      "94% Poliéster 6% Elastano",
		WeightGSM:        180,
		WidthCM:          160,
		YieldMKg:         3.4,
		EfficiencyFactor: 0.93,
		WeavingCost:      3.75,
	})
	require.NoError(t, err)
	_, err = env.products.SetComposition(env.product.ID, &SetCompositionRequest{
		Yarns: []CompositionItem{
			{YarnTypeID: env.poliester.ID, Proportion: 0.94},
			{YarnTypeID: env.elastano.ID, Proportion: 0.06},
		},
	})
	require.NoError(t, err)

	env.tinturaria, err = env.tinturarias.Create(&CreateTinturariaRequest{Name: "Tinturaria Serra"})
	require.NoError(t, err)

	env.branco = env.addColorCost(t, "branco", 7.62)
	env.preto = env.addColorCost(t, "Preto", 9.10)
	return env
}

func (env *testEnv) createUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{Email: email, FullName: "Teste", Role: role}
	require.NoError(t, user.SetPassword("senha-segura-1"))
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) setPrices(t *testing.T, poliester, elastano float64) {
	t.Helper()
	_, err := env.yarns.SaveTodayPrices(&SaveYarnPricesRequest{
		Prices: []YarnPriceItem{
			{YarnTypeID: env.poliester.ID, Price: poliester},
			{YarnTypeID: env.elastano.ID, Price: elastano},
		},
	})
	require.NoError(t, err)
}

func (env *testEnv) addColorCost(t *testing.T, name string, cost float64) *models.Color {
	t.Helper()
	color, err := env.colors.CreateColor(&CreateColorRequest{Name: name, Scale: "Básicas"})
	require.NoError(t, err)
	_, err = env.dyeing.Add(&AddDyeingCostRequest{
		TinturariaID: env.tinturaria.ID,
		ProductID:    env.product.ID,
		ColorID:      color.ID,
		Cost:         cost,
	})
	require.NoError(t, err)
	return color
}

func (env *testEnv) calcRequest(entries ...CalculationEntry) CalculationRequest {
	return CalculationRequest{
		ProductID:    env.product.ID,
		TinturariaID: env.tinturaria.ID,
		Entries:      entries,
	}
}

func (env *testEnv) saveQuote(t *testing.T, customer string, entries ...CalculationEntry) *models.Quote {
	t.Helper()
	quote, err := env.quotes.Save(&SaveQuoteRequest{
		CalculationRequest: env.calcRequest(entries...),
		CustomerName:       customer,
		PaymentMethod:      "30/60 dias",
	}, env.admin.ID, true)
	require.NoError(t, err)
	return quote
}

func calcCode(t *testing.T, err error) string {
	t.Helper()
	var verr *costing.ValidationError
	require.True(t, errors.As(err, &verr), "expected costing.ValidationError, got %v", err)
	return verr.Code
}
