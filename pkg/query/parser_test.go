package query

import (
	"math"
	"testing"

	"triedb/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelect(t *testing.T) {
	tests := []struct {
		sql   string
		field string
		limit int
		conds int
		err   bool
	}{
		{"SELECT * FROM price", "price", -1, 0, false},
		{"select * from price", "price", -1, 0, false},
		{"SELECT * FROM price;", "price", -1, 0, false},
		{"  SELECT * FROM orders.total  ", "orders.total", -1, 0, false},
		{"SELECT * FROM price LIMIT 10", "price", 10, 0, false},
		{"SELECT * FROM price WHERE value >= 100", "price", -1, 1, false},
		{"SELECT * FROM price WHERE value > 1 AND value <= 9.5 LIMIT 5", "price", 5, 2, false},
		{"SELECT * FROM price WHERE value BETWEEN -5000 AND 9500", "price", -1, 2, false},
		{"SELECT * FROM price WHERE name = 1", "", 0, 0, true},
		{"SELECT * FROM price WHERE value != 1", "", 0, 0, true},
		{"SELECT * FROM ", "", 0, 0, true},
		{"SELECT a FROM price", "", 0, 0, true},
		{"INSERT INTO price", "", 0, 0, true},
		{"", "", 0, 0, true},
	}
	for _, tt := range tests {
		stmt, err := Parse(tt.sql)
		if tt.err {
			assert.ErrorIs(t, err, ErrSyntax, tt.sql)
			continue
		}
		require.NoError(t, err, tt.sql)
		assert.Equal(t, tt.field, stmt.Field, tt.sql)
		assert.Equal(t, tt.limit, stmt.Limit, tt.sql)
		assert.Len(t, stmt.Conds, tt.conds, tt.sql)
	}
}

func TestBoundsInt64(t *testing.T) {
	tests := []struct {
		sql          string
		lower, upper int64
	}{
		{"SELECT * FROM ts", math.MinInt64, math.MaxInt64},
		{"SELECT * FROM ts WHERE value BETWEEN -5000 AND 9500", -5000, 9500},
		{"SELECT * FROM ts WHERE value > 10 AND value < 20", 11, 19},
		{"SELECT * FROM ts WHERE value = 7", 7, 7},
		{"SELECT * FROM ts WHERE value >= 0 AND value >= 5 AND value <= 8", 5, 8},
	}
	for _, tt := range tests {
		stmt, err := Parse(tt.sql)
		require.NoError(t, err, tt.sql)
		lower, upper, err := stmt.Bounds(common.KindInt64)
		require.NoError(t, err, tt.sql)
		assert.Equal(t, common.Int64Value(tt.lower), lower, tt.sql)
		assert.Equal(t, common.Int64Value(tt.upper), upper, tt.sql)
	}
}

func TestBoundsEmptyRanges(t *testing.T) {
	for _, sql := range []string{
		"SELECT * FROM ts WHERE value > 9223372036854775807",
		"SELECT * FROM ts WHERE value < -9223372036854775808",
		"SELECT * FROM ts WHERE value > 5 AND value < 3",
	} {
		stmt, err := Parse(sql)
		require.NoError(t, err, sql)
		lower, upper, err := stmt.Bounds(common.KindInt64)
		require.NoError(t, err, sql)
		assert.Greater(t, lower.Bits, upper.Bits, sql)
	}

	stmt, err := Parse("SELECT * FROM year WHERE value > 2147483647")
	require.NoError(t, err)
	lower, upper, err := stmt.Bounds(common.KindInt32)
	require.NoError(t, err)
	assert.Greater(t, lower.Int32(), upper.Int32())
}

func TestBoundsFloatStrictUsesNextValue(t *testing.T) {
	stmt, err := Parse("SELECT * FROM price WHERE value > 1 AND value < 2")
	require.NoError(t, err)
	lower, upper, err := stmt.Bounds(common.KindFloat64)
	require.NoError(t, err)
	assert.Equal(t, math.Nextafter(1, 2), lower.Float64())
	assert.Equal(t, math.Nextafter(2, 1), upper.Float64())

	stmt, err = Parse("SELECT * FROM price WHERE value >= -inf")
	require.NoError(t, err)
	lower, upper, err = stmt.Bounds(common.KindFloat64)
	require.NoError(t, err)
	assert.True(t, math.IsInf(lower.Float64(), -1))
	assert.Equal(t, int64(math.MaxInt64), upper.Bits)

	stmt, err = Parse("SELECT * FROM price WHERE value = abc")
	require.NoError(t, err)
	_, _, err = stmt.Bounds(common.KindFloat64)
	assert.Error(t, err)
}

func TestApplyLimit(t *testing.T) {
	stmt := &Stmt{Limit: 2}
	assert.Equal(t, []common.DocID{1, 2}, stmt.Apply([]common.DocID{1, 2, 3}))
	stmt.Limit = -1
	assert.Len(t, stmt.Apply([]common.DocID{1, 2, 3}), 3)
}
