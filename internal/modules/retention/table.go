// Package retention builds month-over-month revenue retention structures from
// cohort revenue arrays and samples synthetic retention curves from them.
package retention

// Table is the cohort retention matrix. Rows keep the cohort input order, so
// row 0 is the oldest (aggregate) cohort; Rows[i][j] is the revenue multiplier
// from month j+1 to month j+2 of cohort i, nil when unobserved. The
// still-forming newest cohort is dropped during construction.
type Table struct {
	Rows    [][]*float64 `json:"rows"`
	Columns int          `json:"columns"`
}

// BuildTable derives the retention table from raw cohort revenue arrays.
// Cell j = revenue[j+1]/revenue[j], nil when either month is zero or absent.
// The oldest cohort row fixes the column count; from the third row on, each
// row loses one trailing column (younger cohorts have not lived long enough
// for their tail to be comparable), and the last row is discarded entirely.
func BuildTable(cohorts [][]float64) *Table {
	if len(cohorts) == 0 {
		return &Table{}
	}

	columns := len(cohorts[0]) - 1
	if columns < 0 {
		columns = 0
	}

	rows := make([][]*float64, 0, len(cohorts))
	for i, revenue := range cohorts {
		row := make([]*float64, 0, columns)
		for j := 1; j < len(revenue); j++ {
			prev, curr := revenue[j-1], revenue[j]
			if prev == 0 || curr == 0 {
				row = append(row, nil)
				continue
			}
			multiplier := curr / prev
			row = append(row, &multiplier)
		}

		maxLen := columns
		if i >= 2 {
			maxLen = columns - (i - 1)
			if maxLen < 0 {
				maxLen = 0
			}
		}
		if len(row) > maxLen {
			row = row[:maxLen]
		}
		rows = append(rows, row)
	}

	// The newest cohort is still forming; its early multipliers are noise
	rows = rows[:len(rows)-1]

	return &Table{Rows: rows, Columns: columns}
}

// ObservedColumn returns the non-nil values at the column across all rows
// after the first. The aggregate cohort row never feeds column sampling.
func (t *Table) ObservedColumn(col int) []float64 {
	if len(t.Rows) < 2 {
		return nil
	}
	var values []float64
	for _, row := range t.Rows[1:] {
		if col < len(row) && row[col] != nil {
			values = append(values, *row[col])
		}
	}
	return values
}
