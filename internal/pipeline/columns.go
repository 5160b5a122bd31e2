package pipeline

import (
	"path/filepath"
	"strings"

	"MacroPulse/internal/model"
)

// Canonical column names every normalized table exposes.
const (
	ColDate   = "date"
	ColSymbol = "symbol"
	ColPrice  = "price"
)

// columnAliases maps each canonical column to the input names accepted for
// it, matched case-insensitively. Order matters: the first matching input
// column wins.
var columnAliases = map[string][]string{
	ColDate:  {"date", "datetime"},
	ColPrice: {"price", "close", "adj close"},
}

// resolveAlias returns the index of the first column whose lowercased name
// is in the candidate set, or -1 when none matches.
func resolveAlias(columns []string, candidates []string) int {
	for i, col := range columns {
		lower := strings.ToLower(col)
		for _, cand := range candidates {
			if lower == cand {
				return i
			}
		}
	}
	return -1
}

// SymbolFromFilename derives a symbol from a source file's base name
// without its extension.
func SymbolFromFilename(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Normalize renames aliased date/price columns to their canonical names and
// injects a symbol column derived from sourceFile when the input has none.
// A canonical column that already exists is never overwritten by an alias.
// Returns a *SchemaError when any required column remains unresolved.
func Normalize(t *model.Table, sourceFile string) (*model.Table, error) {
	out := &model.Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}

	for _, canonical := range []string{ColDate, ColPrice} {
		if out.ColumnIndex(canonical) >= 0 {
			continue
		}
		if idx := resolveAlias(out.Columns, columnAliases[canonical]); idx >= 0 {
			out.Columns[idx] = canonical
		}
	}

	if out.ColumnIndex(ColSymbol) < 0 {
		sym := SymbolFromFilename(sourceFile)
		out.Columns = append(out.Columns, ColSymbol)
		for i := range out.Rows {
			out.Rows[i] = append(out.Rows[i], sym)
		}
	}

	var missing []string
	for _, canonical := range []string{ColDate, ColSymbol, ColPrice} {
		if out.ColumnIndex(canonical) < 0 {
			missing = append(missing, canonical)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Present: t.Columns}
	}
	return out, nil
}
