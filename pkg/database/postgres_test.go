package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/univ-portal-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "portal", Password: "secret", Name: "univ", SSLMode: "require"})

	assert.Equal(t, "host=db port=5433 user=portal password=secret dbname=univ sslmode=require", dsn)
}
