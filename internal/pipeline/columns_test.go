package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPulse/internal/model"
)

func TestNormalize_AliasedColumns(t *testing.T) {
	table := &model.Table{
		Columns: []string{"Datetime", "Close", "Volume"},
		Rows: [][]string{
			{"2024-01-01", "101.5", "1000"},
			{"2024-01-02", "102.0", "1200"},
		},
	}

	out, err := Normalize(table, "data/raw/AAPL.csv")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.ColumnIndex("date"), 0)
	assert.GreaterOrEqual(t, out.ColumnIndex("price"), 0)
	assert.GreaterOrEqual(t, out.ColumnIndex("symbol"), 0)

	symIdx := out.ColumnIndex("symbol")
	for _, row := range out.Rows {
		assert.Equal(t, "AAPL", row[symIdx])
	}
}

func TestNormalize_AdjClose(t *testing.T) {
	table := &model.Table{
		Columns: []string{"Date", "Adj Close"},
		Rows:    [][]string{{"2024-01-01", "99.9"}},
	}
	out, err := Normalize(table, "BTC.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, out.ColumnIndex("price"))
}

func TestNormalize_ExistingCanonicalNotOverwritten(t *testing.T) {
	table := &model.Table{
		Columns: []string{"date", "datetime", "price", "close"},
		Rows:    [][]string{{"2024-01-01", "x", "100", "200"}},
	}
	out, err := Normalize(table, "ETH.csv")
	require.NoError(t, err)
	// The alias columns keep their names; canonical columns win.
	assert.Equal(t, []string{"date", "datetime", "price", "close", "symbol"}, out.Columns)
}

func TestNormalize_ExistingSymbolColumnKept(t *testing.T) {
	table := &model.Table{
		Columns: []string{"date", "symbol", "price"},
		Rows:    [][]string{{"2024-01-01", "GOLD", "1900"}},
	}
	out, err := Normalize(table, "something_else.csv")
	require.NoError(t, err)
	assert.Equal(t, "GOLD", out.Rows[0][out.ColumnIndex("symbol")])
}

func TestNormalize_MissingColumns(t *testing.T) {
	table := &model.Table{
		Columns: []string{"timestamp", "value"},
		Rows:    [][]string{{"2024-01-01", "100"}},
	}
	_, err := Normalize(table, "X.csv")

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.ElementsMatch(t, []string{"date", "price"}, schemaErr.Missing)
	assert.Equal(t, []string{"timestamp", "value"}, schemaErr.Present)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	table := &model.Table{
		Columns: []string{"Datetime", "Close"},
		Rows:    [][]string{{"2024-01-01", "100"}},
	}
	_, err := Normalize(table, "AAPL.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Datetime", "Close"}, table.Columns)
	assert.Len(t, table.Rows[0], 2)
}

func TestSymbolFromFilename(t *testing.T) {
	assert.Equal(t, "AAPL", SymbolFromFilename("data/raw/AAPL.csv"))
	assert.Equal(t, "GC=F", SymbolFromFilename("GC=F.csv"))
	assert.Equal(t, "BITCOIN", SymbolFromFilename("/abs/path/BITCOIN.csv"))
}
