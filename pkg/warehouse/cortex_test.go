package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(WarehouseConfig{
		Account:   "xy12345",
		User:      "loader",
		Password:  "secret",
		Role:      "SYSADMIN",
		Warehouse: "COMPUTE_WH",
		Database:  "SNOW_PDF",
		Schema:    "PUBLIC",
	})
	require.NoError(t, err)

	assert.Contains(t, dsn, "loader")
	assert.Contains(t, dsn, "xy12345")
	assert.Contains(t, dsn, "SNOW_PDF")
	assert.NotEmpty(t, dsn)
}

func TestBuildDSNMissingAccount(t *testing.T) {
	_, err := buildDSN(WarehouseConfig{
		User:     "loader",
		Password: "secret",
	})
	assert.Error(t, err)
}
