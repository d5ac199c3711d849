package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"secret_santa/internal/models"
	"secret_santa/pkg/config"
)

type PostgresDB struct {
	*gorm.DB
}

func NewPostgresDB(cfg config.DBConfig, verbose bool) (*PostgresDB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode, cfg.TimeZone)

	logLevel := gormlogger.Warn
	if verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// 將唯一鍵衝突轉成 gorm.ErrDuplicatedKey，讓 repository 層可以辨識
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresDB{DB: db}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate 自動遷移資料庫結構
func (db *PostgresDB) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}

// Migrate 建立房間、參與者與抽籤結果三張表
func (db *PostgresDB) Migrate() error {
	return db.AutoMigrate(&models.Room{}, &models.Participant{}, &models.Assignment{})
}
