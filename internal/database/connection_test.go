package database

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/serramalhas/malhas-backend/internal/config"
	"github.com/serramalhas/malhas-backend/internal/models"
)

func TestModelsParse(t *testing.T) {
	cache := &sync.Map{}
	for _, m := range Models() {
		_, err := schema.Parse(m, cache, schema.NamingStrategy{})
		assert.NoError(t, err, "%T", m)
	}
}

func TestRunMigrationsAndSeed(t *testing.T) {
	dsn := fmt.Sprintf("file:migrate_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	cfg := &config.Config{
		Admin: config.AdminConfig{Email: "admin@fastmalhas.com.br", Password: "senha-do-admin-1"},
	}

	require.NoError(t, RunMigrations(db))
	require.NoError(t, SeedInitialData(db, cfg))
	// second start must not duplicate anything
	require.NoError(t, RunMigrations(db))
	require.NoError(t, SeedInitialData(db, cfg))

	var setting models.Setting
	require.NoError(t, db.Where("key = ?", "footer_text").First(&setting).Error)
	assert.NotEmpty(t, setting.Value["value"])

	var settings, yarns, admins int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&settings).Error)
	require.NoError(t, db.Model(&models.YarnType{}).Count(&yarns).Error)
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(3), settings)
	assert.Equal(t, int64(6), yarns)
	assert.Equal(t, int64(1), admins)
}
