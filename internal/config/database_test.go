package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{
		Host:     "db.internal",
		Port:     "3307",
		User:     "portal",
		Password: "s3cret",
		DBName:   "researchhub",
	})

	assert.Equal(t,
		"portal:s3cret@tcp(db.internal:3307)/researchhub?charset=utf8mb4&parseTime=True&loc=Local",
		dsn)
}

func TestConnectDatabaseGivesUpAfterBoundedAttempts(t *testing.T) {
	if testing.Short() {
		t.Skip("retries against an unreachable host take several seconds")
	}

	cfg := &Config{
		AppMode: "prod",
		Database: DatabaseConfig{
			Host:   "127.0.0.1",
			Port:   "1", // nothing listens here
			User:   "portal",
			DBName: "researchhub",
		},
	}

	_, err := ConnectDatabase(cfg)
	assert.Error(t, err)
	assert.ErrorContains(t, err, "database unreachable")
}

func TestHealthCheckWithoutConnection(t *testing.T) {
	previous := DB
	DB = nil
	defer func() { DB = previous }()

	assert.Error(t, HealthCheck())
}
