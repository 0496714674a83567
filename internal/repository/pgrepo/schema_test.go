package pgrepo

import (
	"os"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const initMigration = "../../db/migrations/000001_init.up.sql"

// numericScale возвращает scale колонки column, объявленной как NUMERIC(p, s).
func numericScale(t *testing.T, schema, column string) int {
	t.Helper()
	re := regexp.MustCompile(`(?m)^\s*` + column + `\s+NUMERIC\(\s*\d+\s*,\s*(\d+)\s*\)`)
	m := re.FindStringSubmatch(schema)
	require.NotNil(t, m, "column %s must be NUMERIC(p, s)", column)
	scale, err := strconv.Atoi(m[1])
	require.NoError(t, err)
	return scale
}

// TestSchema_CommissionFitsWithoutRounding баланс и комиссия хранят price * commission_rate
// без округления, иначе ответ клиенту и событие разойдутся с записанным значением.
func TestSchema_CommissionFitsWithoutRounding(t *testing.T) {
	raw, err := os.ReadFile(initMigration)
	require.NoError(t, err)
	schema := string(raw)

	productScale := numericScale(t, schema, "price")
	rateScale := numericScale(t, schema, "commission_rate")
	customScale := numericScale(t, schema, "custom_commission_max")

	for _, column := range []string{"balance", "commission"} {
		scale := numericScale(t, schema, column)
		assert.GreaterOrEqual(t, scale, productScale+rateScale, column)
		assert.GreaterOrEqual(t, scale, customScale, column)
	}
}
