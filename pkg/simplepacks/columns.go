package simplepacks

import (
	"fmt"
)

// Columns returns the column list shared by rows, in table order. Every row
// must use the same set of columns and every column must belong to t.
func (t Table) Columns(rows ...Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	first := rows[0]
	for col := range first {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("column %q is not insertable into %s", col, t.Name)
		}
	}

	cols := make([]string, 0, len(first))
	for _, c := range t.ColumnNames {
		if _, ok := first[c]; ok {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("row for %s has no columns", t.Name)
	}

	for i, row := range rows[1:] {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %d of %s has a different column set than row 0", i+1, t.Name)
		}
		for _, c := range cols {
			if _, ok := row[c]; !ok {
				return nil, fmt.Errorf("row %d of %s has a different column set than row 0", i+1, t.Name)
			}
		}
	}

	return cols, nil
}
