package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/childcare-incidents-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:             "db",
		Port:             5432,
		User:             "app",
		Password:         "p@ss word's",
		Name:             "childcare",
		SSLMode:          "disable",
		StatementTimeout: 15 * time.Second,
	})
	require.Equal(t, `host=db port=5432 user=app password='p@ss word\'s' dbname=childcare sslmode=disable application_name=childcare-incidents-api statement_timeout=15000`, dsn)
}

func TestDSNSkipsEmptyValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "childcare"})
	require.Equal(t, "host=localhost port=5432 dbname=childcare application_name=childcare-incidents-api", dsn)
}
