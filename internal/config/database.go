package config

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect retry policy. The portal and its database usually start together
// (compose, k8s), so the first attempts routinely hit a DB that is still
// initializing.
const (
	connectAttempts   = 5
	connectRetryDelay = 3 * time.Second
)

// DB is the global database instance
var DB *gorm.DB

// ConnectDatabase opens the portal's MySQL database, retrying a bounded
// number of times while the server comes up
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := buildDSN(cfg.Database)

	logLevel := logger.Error
	if cfg.IsDev() {
		logLevel = logger.Info
	}

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = openDatabase(dsn, logLevel)
		if err == nil {
			break
		}
		if attempt < connectAttempts {
			log.Printf("⚠️ Database not ready (attempt %d/%d), retrying in %s: %v",
				attempt, connectAttempts, connectRetryDelay, err)
			time.Sleep(connectRetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectAttempts, err)
	}

	DB = db

	log.Printf("✅ Research database connected [%s:%s/%s]",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
	)

	return db, nil
}

// openDatabase performs one connect attempt: open, tune the pool, ping
func openDatabase(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Pool sizing for a small portal workload
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// buildDSN returns the MySQL connection string. parseTime is required for
// the *time.Time columns (resolution dates, verification timestamps).
func buildDSN(d DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
	)
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// HealthCheck reports whether the database connection is alive
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
